// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"fmt"
	"os"
)

// Batch collects documents produced during a conversion so that nothing
// reaches the disk until the conversion as a whole has succeeded.
type Batch struct {
	docs []*Document
}

// Add queues doc for writing to doc.Path. A later document for the same
// path replaces the earlier one.
func (b *Batch) Add(doc *Document) {
	for i, queued := range b.docs {
		if queued.Path == doc.Path {
			b.docs[i] = doc
			return
		}
	}
	b.docs = append(b.docs, doc)
}

func (b *Batch) Paths() []string {
	var paths []string
	for _, doc := range b.docs {
		paths = append(paths, doc.Path)
	}
	return paths
}

// WriteFiles renders and stages every document next to its destination
// and only then renames them into place. If anything fails while staging,
// no destination file is touched.
func (b *Batch) WriteFiles() error {
	var staged []string

	cleanup := func() {
		for _, tmpPath := range staged {
			os.Remove(tmpPath)
		}
	}

	for _, doc := range b.docs {
		bs, err := doc.Bytes()
		if err != nil {
			cleanup()
			return fmt.Errorf("Rendering document '%s': %w", doc.Path, err)
		}
		tmpPath, err := stageFile(doc.Path, bs)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmpPath)
	}

	for i, doc := range b.docs {
		err := os.Rename(staged[i], doc.Path)
		if err != nil {
			cleanup()
			return fmt.Errorf("Writing '%s': %w", doc.Path, err)
		}
	}
	return nil
}
