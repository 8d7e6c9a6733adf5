package closure

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/c360/termgraph/snomed"
)

// Persistence is optional: a cached closure is keyed by the release date
// and the content hashes of its source files. A tag mismatch means the
// inputs changed and the caller must rebuild.

var (
	// ErrTagMismatch signals that the on-disk closure was built from
	// different inputs.
	ErrTagMismatch = errors.New("closure cache tag mismatch")
	// ErrBadFormat signals a corrupt or foreign cache file.
	ErrBadFormat = errors.New("closure cache format invalid")
)

const (
	cacheMagic   = "TGCL"
	cacheVersion = uint32(1)
)

// Tag identifies the inputs a cached closure was built from.
type Tag struct {
	ReleaseDate  string            `json:"release_date"`
	SourceHashes map[string]string `json:"source_hashes"`
}

// Equal reports whether two tags describe the same inputs.
func (t Tag) Equal(other Tag) bool {
	if t.ReleaseDate != other.ReleaseDate || len(t.SourceHashes) != len(other.SourceHashes) {
		return false
	}
	for k, v := range t.SourceHashes {
		if other.SourceHashes[k] != v {
			return false
		}
	}
	return true
}

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Save writes the closure with its tag to path, atomically via a temp file
// in the same directory.
func (c *Closure) Save(path string, tag Tag) error {
	tmp, err := os.CreateTemp(dirOf(path), ".closure-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := c.encode(w, tag); err != nil {
		tmp.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if os.IsPathSeparator(path[i]) {
			return path[:i]
		}
	}
	return "."
}

func (c *Closure) encode(w io.Writer, tag Tag) error {
	if _, err := w.Write([]byte(cacheMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, cacheVersion); err != nil {
		return err
	}

	tagBytes, err := json.Marshal(tag)
	if err != nil {
		return err
	}
	if err := writeBytes(w, tagBytes); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint32(c.sccCount)); err != nil {
		return err
	}

	ids := make([]snomed.SctID, 0, len(c.descendants))
	for id := range c.descendants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if err := binary.Write(w, binary.LittleEndian, uint64(len(ids))); err != nil {
		return err
	}
	for _, id := range ids {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return err
		}
		if err := writeBitmap(w, c.descendants[id]); err != nil {
			return err
		}
		if err := writeBitmap(w, c.ancestors[id]); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile reads a cached closure from path and verifies its tag against
// expected. ErrTagMismatch means the caller must rebuild from source.
func LoadFile(path string, expected Tag) (*Closure, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(bufio.NewReader(f), expected)
}

func decode(r io.Reader, expected Tag) (*Closure, error) {
	magic := make([]byte, len(cacheMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if string(magic) != cacheMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadFormat, magic)
	}
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if version != cacheVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFormat, version)
	}

	tagBytes, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	var tag Tag
	if err := json.Unmarshal(tagBytes, &tag); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	if !tag.Equal(expected) {
		return nil, ErrTagMismatch
	}

	var sccCount uint32
	if err := binary.Read(r, binary.LittleEndian, &sccCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}

	c := &Closure{
		descendants: make(map[snomed.SctID]*roaring64.Bitmap, count),
		ancestors:   make(map[snomed.SctID]*roaring64.Bitmap, count),
		sccCount:    int(sccCount),
	}
	for i := uint64(0); i < count; i++ {
		var id snomed.SctID
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
		}
		desc, err := readBitmap(r)
		if err != nil {
			return nil, err
		}
		anc, err := readBitmap(r)
		if err != nil {
			return nil, err
		}
		c.descendants[id] = desc
		c.ancestors[id] = anc
	}
	return c, nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

func writeBitmap(w io.Writer, bm *roaring64.Bitmap) error {
	var buf bytes.Buffer
	if bm != nil {
		if _, err := bm.WriteTo(&buf); err != nil {
			return err
		}
	}
	return writeBytes(w, buf.Bytes())
}

func readBitmap(r io.Reader) (*roaring64.Bitmap, error) {
	b, err := readBytes(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	bm := roaring64.New()
	if len(b) == 0 {
		return bm, nil
	}
	if _, err := bm.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFormat, err)
	}
	return bm, nil
}
