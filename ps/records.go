package ps

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/nickyhof/CommitKV/core"
)

const dataBucket = "data"

func recordPath(bucket, key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, "/\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return bucket + "/" + key, nil
}

// putRecord writes value at bucket/key. mustExist selects update semantics;
// otherwise the key must be absent. Callers hold the write lock.
func (p *Persistence) putRecord(bucket, key string, value any, mustExist bool, identity core.Identity) (Transaction, error) {
	filePath, err := recordPath(bucket, key)
	if err != nil {
		return Transaction{}, err
	}

	exists, err := p.fileExists(filePath)
	if err != nil {
		return Transaction{}, err
	}
	if mustExist && !exists {
		return Transaction{}, ErrKeyNotExists
	}
	if !mustExist && exists {
		return Transaction{}, ErrKeyExists
	}

	data, err := json.Marshal(value)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to encode record: %w", err)
	}

	blob, err := p.writeBlob(data)
	if err != nil {
		return Transaction{}, err
	}

	verb := "Insert"
	if mustExist {
		verb = "Update"
	}
	txn, err := p.commitChanges([]change{{path: filePath, blob: blob}}, identity, fmt.Sprintf("%s %s", verb, filePath))
	if err == nil {
		p.invalidate(bucket, key)
	}
	return txn, err
}

func (p *Persistence) removeRecord(bucket, key string, identity core.Identity) (Transaction, error) {
	filePath, err := recordPath(bucket, key)
	if err != nil {
		return Transaction{}, err
	}

	exists, err := p.fileExists(filePath)
	if err != nil {
		return Transaction{}, err
	}
	if !exists {
		return Transaction{}, ErrKeyNotExists
	}

	txn, err := p.commitChanges([]change{{path: filePath, remove: true}}, identity, fmt.Sprintf("Delete %s", filePath))
	if err == nil {
		p.invalidate(bucket, key)
	}
	return txn, err
}

func (p *Persistence) readRecord(bucket, key string, out any) error {
	filePath, err := recordPath(bucket, key)
	if err != nil {
		return err
	}

	data, err := p.readFile(filePath)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return nil
}

// InsertRecord stores a new key. It fails with ErrKeyExists if the key is
// already present.
func (p *Persistence) InsertRecord(key string, value any, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.putRecord(dataBucket, key, value, false, identity)
}

// UpdateRecord replaces the value of an existing key. It fails with
// ErrKeyNotExists if the key is absent.
func (p *Persistence) UpdateRecord(key string, value any, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.putRecord(dataBucket, key, value, true, identity)
}

// GetRecord returns the decoded value of key, or ErrNotFound.
func (p *Persistence) GetRecord(key string) (any, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.cache != nil {
		if value, ok := p.cache.Get(key); ok {
			return value, nil
		}
	}

	var value any
	if err := p.readRecord(dataBucket, key, &value); err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Add(key, value)
	}
	return value, nil
}

// DeleteRecord removes key. It fails with ErrKeyNotExists if the key is
// absent.
func (p *Persistence) DeleteRecord(key string, identity core.Identity) (Transaction, error) {
	if err := p.ensureInitialized(); err != nil {
		return Transaction{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeRecord(dataBucket, key, identity)
}

// ListKeys returns every stored key in ascending order.
func (p *Persistence) ListKeys() ([]string, error) {
	if err := p.ensureInitialized(); err != nil {
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.listFiles(dataBucket)
}
