package commands

import (
	"context"
	"fmt"

	"shelver/internal/application"
	"shelver/internal/domain"
	"shelver/internal/ports"
)

// ClassifyResult contains the classification of one filename
type ClassifyResult struct {
	Filename       string
	Classification domain.Classification
}

// ClassifyCommand classifies a filename without moving anything
type ClassifyCommand struct {
	store       ports.FileStore
	classifier  *domain.Classifier
	Filename    string
	ContentPath string // optional file whose head is used as the content hint
	SniffBytes  int
}

// NewClassifyCommand creates a new ClassifyCommand
func NewClassifyCommand(store ports.FileStore, classifier *domain.Classifier, filename, contentPath string, sniffBytes int) *ClassifyCommand {
	return &ClassifyCommand{
		store:       store,
		classifier:  classifier,
		Filename:    filename,
		ContentPath: contentPath,
		SniffBytes:  sniffBytes,
	}
}

// Validate checks if the classification request is valid
func (c *ClassifyCommand) Validate() error {
	return application.ValidateRequired("filename", c.Filename)
}

// Execute runs the classify command
func (c *ClassifyCommand) Execute(ctx context.Context) (*ClassifyResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var hint string
	if c.ContentPath != "" {
		n := c.SniffBytes
		if n <= 0 {
			n = 4096
		}
		h, err := c.store.ReadHead(c.ContentPath, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read content: %w", err)
		}
		hint = h
	}

	cls, err := c.classifier.Classify(c.Filename, hint)
	if err != nil {
		return nil, err
	}

	return &ClassifyResult{
		Filename:       c.Filename,
		Classification: cls,
	}, nil
}
