package cache

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/Avinash9608/Furniture-sub003/pkg/domain"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// SaveToFile writes every entry to filename, replacing it atomically.
func (c *Cache) SaveToFile(filename string) error {
	data := snapshotData{SavedAt: time.Now()}
	for _, entry := range c.lru.Oldest() {
		docs := make([]map[string]interface{}, 0, len(entry.Documents))
		for _, doc := range entry.Documents {
			docs = append(docs, map[string]interface{}(doc))
		}
		data.Entries = append(data.Entries, snapshotEntry{
			Collection:  entry.Collection,
			Fingerprint: entry.Fingerprint,
			Documents:   docs,
			StoredAt:    entry.StoredAt,
		})
	}

	msgpackData, err := msgpack.Marshal(&data)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	body := make([]byte, lz4.CompressBlockBound(len(msgpackData)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(msgpackData, body, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}
	flags := flagCompressed
	if n == 0 {
		// incompressible input is stored as is
		body, flags = msgpackData, 0
	} else {
		body = body[:n]
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	tmp := filename + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	w := bufio.NewWriter(file)
	if err := WriteHeader(w, flags, len(msgpackData)); err != nil {
		file.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		file.Close()
		return fmt.Errorf("failed to write snapshot body: %w", err)
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to flush snapshot: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	c.dirty.Store(false)
	return nil
}

// LoadFromFile restores entries saved by SaveToFile. A missing file is not an
// error.
func (c *Cache) LoadFromFile(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	return c.load(bytes.NewReader(raw))
}

func (c *Cache) load(r io.Reader) error {
	header, err := ReadHeader(r)
	if err != nil {
		return fmt.Errorf("invalid file header: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot body: %w", err)
	}

	msgpackData := body
	if header.Flags&flagCompressed != 0 {
		msgpackData = make([]byte, header.RawLen)
		n, err := lz4.UncompressBlock(body, msgpackData)
		if err != nil {
			return fmt.Errorf("failed to decompress data: %w", err)
		}
		msgpackData = msgpackData[:n]
	}

	var data snapshotData
	if err := msgpack.Unmarshal(msgpackData, &data); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	for _, se := range data.Entries {
		docs := make([]domain.Document, 0, len(se.Documents))
		for _, doc := range se.Documents {
			docs = append(docs, domain.Document(doc))
		}
		c.lru.Put(cacheKey(se.Collection, se.Fingerprint), &Entry{
			Collection:  se.Collection,
			Fingerprint: se.Fingerprint,
			Documents:   docs,
			StoredAt:    se.StoredAt,
		})
	}
	log.Printf("INFO: restored %d cached results from snapshot saved %s", len(data.Entries), data.SavedAt.Format(time.RFC3339))
	return nil
}

// StartBackgroundWorkers loads the snapshot and starts the periodic saver.
func (c *Cache) StartBackgroundWorkers() {
	if c.snapshotPath == "" {
		return
	}
	if err := c.LoadFromFile(c.snapshotPath); err != nil {
		log.Printf("WARN: ignoring cache snapshot %s: %v", c.snapshotPath, err)
	}
	if c.saveInterval <= 0 {
		return
	}

	c.backgroundWg.Add(1)
	go func() {
		defer c.backgroundWg.Done()
		ticker := time.NewTicker(c.saveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.saveIfDirty()
			case <-c.stopChan:
				return
			}
		}
	}()
}

// StopBackgroundWorkers stops the saver and writes a final snapshot.
func (c *Cache) StopBackgroundWorkers() {
	c.stopOnce.Do(func() { close(c.stopChan) })
	c.backgroundWg.Wait()
	if c.snapshotPath != "" {
		c.saveIfDirty()
	}
}

func (c *Cache) saveIfDirty() {
	if !c.dirty.Load() {
		return
	}
	if err := c.SaveToFile(c.snapshotPath); err != nil {
		log.Printf("ERROR: failed to save cache snapshot: %v", err)
	}
}
