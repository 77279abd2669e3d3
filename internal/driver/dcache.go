package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"flakes/internal/diag"
	"flakes/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// DiskCache хранит диагностики файлов на диске, по ключу из содержимого
// и настроек проверки. Thread-safe for concurrent access.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachedSpan is a span without its file id, which differs between runs.
type CachedSpan struct {
	Line, Col, EndLine, EndCol uint32
}

type CachedNote struct {
	Span CachedSpan
	Msg  string
}

type CachedDiagnostic struct {
	Code     uint16
	Severity uint8
	Message  string
	Span     CachedSpan
	Args     []string
	Notes    []CachedNote
}

// DiskPayload is one file's cached result.
type DiskPayload struct {
	// Schema version for safe invalidation when format changes
	Schema uint16
	Path   string

	Diagnostics []CachedDiagnostic
	Deferred    int
}

// OpenDiskCache initializes and returns a disk cache at the standard location.
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return OpenDiskCacheAt(filepath.Join(base, app))
}

// OpenDiskCacheAt uses dir as the cache root.
func OpenDiskCacheAt(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// CacheKey hashes everything a file's diagnostics depend on: the schema,
// interpreter, path, content, extra builtins (order-insensitive) and the
// doctest flag.
func CacheKey(python, path string, content []byte, builtins []string, doctests bool) Digest {
	h := sha256.New()
	var buf [8]byte
	writeField := func(b []byte) {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(b)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write(b)
	}
	binary.LittleEndian.PutUint16(buf[:2], diskCacheSchemaVersion)
	_, _ = h.Write(buf[:2])
	writeField([]byte(python))
	writeField([]byte(path))
	writeField(content)
	sorted := slices.Clone(builtins)
	slices.Sort(sorted)
	for _, b := range slices.Compact(sorted) {
		writeField([]byte(b))
	}
	if doctests {
		_, _ = h.Write([]byte{1})
	} else {
		_, _ = h.Write([]byte{0})
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := key.String()
	// два уровня каталогов, чтобы не складывать всё в один
	return filepath.Join(c.dir, "files", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	payload.Schema = diskCacheSchemaVersion
	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, p)
}

// Get reads a payload. A missing entry, a payload of another schema or an
// undecodable file is a miss; the last two are removed.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	p := c.pathFor(key)
	data, err := os.ReadFile(p)
	c.mu.RUnlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := msgpack.Unmarshal(data, out); err != nil || out.Schema != diskCacheSchemaVersion {
		c.mu.Lock()
		_ = os.Remove(p)
		c.mu.Unlock()
		*out = DiskPayload{}
		return false, nil
	}
	return true, nil
}

// DropAll invalidates the cache, useful after format changes.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, потом удалим
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(c.dir, 0o755)
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func cacheSpan(sp source.Span) CachedSpan {
	return CachedSpan{Line: sp.Line, Col: sp.Col, EndLine: sp.EndLine, EndCol: sp.EndCol}
}

func (s CachedSpan) span(file source.FileID) source.Span {
	return source.Span{File: file, Line: s.Line, Col: s.Col, EndLine: s.EndLine, EndCol: s.EndCol}
}

// diagnosticsToPayload converts a file's diagnostics for caching.
func diagnosticsToPayload(path string, diags []diag.Diagnostic, deferred int) *DiskPayload {
	payload := &DiskPayload{
		Schema:      diskCacheSchemaVersion,
		Path:        path,
		Diagnostics: make([]CachedDiagnostic, len(diags)),
		Deferred:    deferred,
	}
	for i, d := range diags {
		cd := CachedDiagnostic{
			Code:     uint16(d.Code),
			Severity: uint8(d.Severity),
			Message:  d.Message,
			Span:     cacheSpan(d.Primary),
			Args:     d.Args,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, CachedNote{Span: cacheSpan(n.Span), Msg: n.Msg})
		}
		payload.Diagnostics[i] = cd
	}
	return payload
}

// payloadToDiagnostics restores diagnostics against the current file id.
func payloadToDiagnostics(payload *DiskPayload, file source.FileID, filename string) []diag.Diagnostic {
	if payload == nil || payload.Schema != diskCacheSchemaVersion {
		return nil
	}
	out := make([]diag.Diagnostic, len(payload.Diagnostics))
	for i, cd := range payload.Diagnostics {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  cd.Span.span(file),
			Filename: filename,
			Args:     cd.Args,
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: n.Span.span(file), Msg: n.Msg})
		}
		out[i] = d
	}
	return out
}
