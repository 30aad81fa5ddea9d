package storage

import "time"

// Asset describes a stored result file
type Asset struct {
	URL         string    `json:"url" yaml:"url"`
	Name        string    `json:"name" yaml:"name"`
	IsDir       bool      `json:"isDir,omitempty" yaml:"isDir,omitempty"`
	Size        int64     `json:"size,omitempty" yaml:"size,omitempty"`
	ModTime     time.Time `json:"modTime,omitempty" yaml:"modTime,omitempty"`
	ContentType string    `json:"contentType,omitempty" yaml:"contentType,omitempty"`
}
