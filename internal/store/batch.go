// ABOUTME: Batch groups clears and puts applied atomically by an engine.
// ABOUTME: Used by import and settings save to commit several writes together.

package store

// Write is a single Put inside a Batch.
type Write struct {
	Collection Collection
	Record     Record
}

// Batch groups clears and puts that must commit together. Clears run
// before puts; puts run in the order they were added.
type Batch struct {
	Clears []Collection
	Writes []Write
}

func NewBatch() *Batch {
	return &Batch{}
}

func (b *Batch) Clear(c Collection) *Batch {
	b.Clears = append(b.Clears, c)
	return b
}

func (b *Batch) Put(c Collection, rec Record) *Batch {
	b.Writes = append(b.Writes, Write{Collection: c, Record: rec})
	return b
}

func (b *Batch) Empty() bool {
	return len(b.Clears) == 0 && len(b.Writes) == 0
}

// Validate checks every collection named by the batch.
func (b *Batch) Validate() error {
	for _, c := range b.Clears {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, w := range b.Writes {
		if err := w.Collection.Validate(); err != nil {
			return err
		}
	}
	return nil
}
