// Package chunk stores compresso-encoded label volumes as chunks addressed
// by grid coordinate.  Each chunk is one file holding a serialized stream
// (see serialize.go); reads go through an optional in-memory cache.
package chunk

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/coocood/freecache"

	"github.com/janelia-flyem/compresso"
)

// Coord addresses a chunk in the volume grid as (x, y, z).
type Coord [3]int32

func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c[0], c[1], c[2])
}

// Bytes returns a sortable key with the z, then y, then x coordinate packed
// big-endian, offset so negative coordinates sort before positive ones.
func (c Coord) Bytes() []byte {
	buf := make([]byte, 12)
	binary.BigEndian.PutUint32(buf[0:4], uint32(c[2])+0x80000000)
	binary.BigEndian.PutUint32(buf[4:8], uint32(c[1])+0x80000000)
	binary.BigEndian.PutUint32(buf[8:12], uint32(c[0])+0x80000000)
	return buf
}

// filename returns the chunk's file name within a store directory.
func (c Coord) filename() string {
	return hex.EncodeToString(c.Bytes()) + ".cpso"
}

// Config is read from an optional config.toml in the store directory.
type Config struct {
	// Compression applied on top of the codec: "none", "snappy", "lz4",
	// "gzip", or "zstd".
	Compression string `toml:"compression"`

	// Checksum is "none" or "crc32".
	Checksum string `toml:"checksum"`

	// CacheMB is the size of the read-through chunk cache in megabytes;
	// zero disables caching.
	CacheMB int `toml:"cache_mb"`
}

func (c Config) compression() (Compression, error) {
	switch c.Compression {
	case "", "snappy":
		return Snappy, nil
	case "none":
		return Uncompressed, nil
	case "lz4":
		return LZ4, nil
	case "gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	}
	return Uncompressed, fmt.Errorf("unknown compression %q in chunk store config", c.Compression)
}

func (c Config) checksum() (Checksum, error) {
	switch c.Checksum {
	case "", "crc32":
		return CRC32, nil
	case "none":
		return NoChecksum, nil
	}
	return NoChecksum, fmt.Errorf("unknown checksum %q in chunk store config", c.Checksum)
}

// Store is a file-per-chunk store rooted at a directory.
type Store struct {
	path     string
	compress Compression
	checksum Checksum
	cache    *freecache.Cache
}

// Open opens or creates a chunk store at the given directory, reading
// config.toml there if present.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("unable to create chunk store directory %q: %v", path, err)
	}

	var config Config
	configPath := filepath.Join(path, "config.toml")
	if _, err := toml.DecodeFile(configPath, &config); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("unable to read chunk store config %q: %v", configPath, err)
	}
	compress, err := config.compression()
	if err != nil {
		return nil, err
	}
	checksum, err := config.checksum()
	if err != nil {
		return nil, err
	}

	s := &Store{
		path:     path,
		compress: compress,
		checksum: checksum,
	}
	if config.CacheMB > 0 {
		s.cache = freecache.NewCache(config.CacheMB << 20)
		compresso.Infof("Created freecache of ~ %d MB for chunk store %q.\n", config.CacheMB, path)
	}
	return s, nil
}

// Put stores a compresso stream under the given chunk coordinate.
func (s *Store) Put(c Coord, stream []byte) error {
	serialization, err := SerializeData(stream, s.compress, s.checksum)
	if err != nil {
		return err
	}
	fname := filepath.Join(s.path, c.filename())
	if err := os.WriteFile(fname, serialization, 0644); err != nil {
		return fmt.Errorf("unable to write chunk %s: %v", c, err)
	}
	if s.cache != nil {
		s.cache.Set(c.Bytes(), stream, 0)
	}
	return nil
}

// Get retrieves the compresso stream stored under the given chunk
// coordinate.  A missing chunk returns os.ErrNotExist.
func (s *Store) Get(c Coord) ([]byte, error) {
	if s.cache != nil {
		stream, err := s.cache.Get(c.Bytes())
		if err == nil {
			return stream, nil
		}
		if err != freecache.ErrNotFound {
			compresso.Errorf("chunk cache get %s: %v\n", c, err)
		}
	}

	serialization, err := os.ReadFile(filepath.Join(s.path, c.filename()))
	if err != nil {
		return nil, err
	}
	stream, _, err := DeserializeData(serialization, true)
	if err != nil {
		return nil, fmt.Errorf("unable to deserialize chunk %s: %v", c, err)
	}
	if s.cache != nil {
		s.cache.Set(c.Bytes(), stream, 0)
	}
	return stream, nil
}

// Delete removes a chunk.  Deleting a missing chunk is not an error.
func (s *Store) Delete(c Coord) error {
	if s.cache != nil {
		s.cache.Del(c.Bytes())
	}
	err := os.Remove(filepath.Join(s.path, c.filename()))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PutLabels compresses a packed little-endian label array and stores it
// under the given chunk coordinate.
func (s *Store) PutLabels(c Coord, data []byte, sx, sy, sz, dataWidth int, opt *compresso.CompressOptions) error {
	t := compresso.NewTimeLog()
	stream, err := compresso.Compress(data, sx, sy, sz, dataWidth, opt)
	if err != nil {
		return fmt.Errorf("unable to compress chunk %s: %v", c, err)
	}
	if err := s.Put(c, stream); err != nil {
		return err
	}
	t.Debugf("compressed and stored chunk %s, %d -> %d bytes", c, len(data), len(stream))
	return nil
}

// GetLabels decodes the chunk stored at the given coordinate into output,
// which the caller allocates with sx*sy*sz*dataWidth bytes (see the chunk's
// Header for dimensions).
func (s *Store) GetLabels(c Coord, output []byte) error {
	stream, err := s.Get(c)
	if err != nil {
		return err
	}
	if err := compresso.Decompress(stream, output); err != nil {
		return fmt.Errorf("unable to decompress chunk %s: %v", c, err)
	}
	return nil
}

// GetHeader returns the codec header of a stored chunk, giving its
// dimensions and data width without a full decode.
func (s *Store) GetHeader(c Coord) (compresso.Header, error) {
	stream, err := s.Get(c)
	if err != nil {
		return compresso.Header{}, err
	}
	return compresso.ParseHeader(stream)
}
