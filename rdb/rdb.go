// Package rdb reads libretro RDB files, the MessagePack game databases
// shipped with RetroArch, and indexes them for title lookups.
package rdb

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Game is one database entry
type Game struct {
	Name         string // full No-Intro/Redump name, e.g. "Ico (USA)"
	Description  string
	Genre        string
	Developer    string
	Publisher    string
	Franchise    string
	ESRBRating   string
	ROMName      string
	ReleaseMonth uint
	ReleaseYear  uint
	Size         uint64
	CRC32        uint32
	Serial       string
	MD5          string
}

// RDB holds the parsed entries and their lookup indexes
type RDB struct {
	games    []Game
	byCRC32  map[uint32]*Game
	bySerial map[string]*Game
}

// headerSize is the "RARCHDB\0" magic plus the metadata offset.
const headerSize = 0x10

var errTruncated = errors.New("truncated record")

// LoadRDB loads and parses an RDB file from disk
func LoadRDB(path string) (*RDB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read RDB file: %w", err)
	}
	return Parse(data), nil
}

// Parse decodes RDB content. Decoding stops at the nil terminator or at
// the first malformed record; entries decoded before that are kept.
func Parse(data []byte) *RDB {
	return newRDB(parseGames(data))
}

func newRDB(games []Game) *RDB {
	db := &RDB{
		games:    games,
		byCRC32:  make(map[uint32]*Game, len(games)),
		bySerial: make(map[string]*Game, len(games)),
	}
	for i := range db.games {
		g := &db.games[i]
		if g.CRC32 != 0 {
			db.byCRC32[g.CRC32] = g
		}
		if s := NormalizeSerial(g.Serial); s != "" {
			db.bySerial[s] = g
		}
	}
	return db
}

// FindByCRC32 looks up a game by the CRC32 of its image
func (db *RDB) FindByCRC32(crc32 uint32) *Game {
	return db.byCRC32[crc32]
}

// FindBySerial looks up a game by disc serial. "SLUS-20062" and
// "SLUS_200.62" name the same disc.
func (db *RDB) FindBySerial(serial string) *Game {
	return db.bySerial[NormalizeSerial(serial)]
}

// GameCount returns the number of games in the database
func (db *RDB) GameCount() int {
	return len(db.games)
}

// NormalizeSerial upper-cases serial and drops everything that is not a
// letter or digit.
func NormalizeSerial(serial string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(serial) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GetDisplayName strips the parenthesised region and revision tags from
// a database name
func GetDisplayName(name string) string {
	if idx := strings.Index(name, " ("); idx > 0 {
		return strings.TrimSpace(name[:idx])
	}
	return name
}

// GetRegionFromName returns "us", "eu", "jp", or "" if unknown
func GetRegionFromName(name string) string {
	lower := strings.ToLower(name)

	for _, r := range []struct{ region, tag string }{
		{"us", "usa"}, {"us", "us"},
		{"eu", "europe"}, {"eu", "eu"},
		{"jp", "japan"}, {"jp", "jp"},
	} {
		if strings.Contains(lower, "("+r.tag+")") ||
			strings.Contains(lower, "("+r.tag+",") ||
			strings.Contains(lower, ", "+r.tag+")") {
			return r.region
		}
	}
	if strings.Contains(lower, "(world)") {
		return "us"
	}
	return ""
}

// GetRegionFromSerial maps the publisher prefix of a disc serial to a
// region.
func GetRegionFromSerial(serial string) string {
	s := NormalizeSerial(serial)
	if len(s) < 4 {
		return ""
	}
	switch s[:4] {
	case "SLUS", "SCUS", "PBPX":
		return "us"
	case "SLES", "SCES", "SCED":
		return "eu"
	case "SLPS", "SLPM", "SCPS", "SLAJ", "SCAJ":
		return "jp"
	}
	return ""
}

// MessagePack type bytes used by RDB files
const (
	mpfFixMap   = 0x80
	mpfFixArray = 0x90
	mpfFixStr   = 0xa0
	mpfNil      = 0xc0
	mpfBin8     = 0xc4
	mpfBin16    = 0xc5
	mpfBin32    = 0xc6
	mpfUint8    = 0xcc
	mpfUint16   = 0xcd
	mpfUint32   = 0xce
	mpfUint64   = 0xcf
	mpfStr8     = 0xd9
	mpfStr16    = 0xda
	mpfStr32    = 0xdb
	mpfMap16    = 0xde
	mpfMap32    = 0xdf
)

// decoder walks the MessagePack stream
type decoder struct {
	data []byte
	pos  int
}

func (d *decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, errTruncated
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *decoder) length(size int) (int, error) {
	b, err := d.take(size)
	if err != nil {
		return 0, err
	}
	switch size {
	case 1:
		return int(b[0]), nil
	case 2:
		return int(binary.BigEndian.Uint16(b)), nil
	default:
		return int(binary.BigEndian.Uint32(b)), nil
	}
}

// mapHeader reads a map marker and returns its entry count
func (d *decoder) mapHeader() (int, error) {
	t, err := d.take(1)
	if err != nil {
		return 0, err
	}
	switch {
	case t[0] >= mpfFixMap && t[0] < mpfFixArray:
		return int(t[0] - mpfFixMap), nil
	case t[0] == mpfMap16:
		return d.length(2)
	case t[0] == mpfMap32:
		return d.length(4)
	}
	return 0, fmt.Errorf("expected map, got type 0x%02x", t[0])
}

// scalar reads a string, binary or unsigned value. Unsigned values are
// returned as their big-endian bytes.
func (d *decoder) scalar() ([]byte, error) {
	t, err := d.take(1)
	if err != nil {
		return nil, err
	}

	var n int
	switch tb := t[0]; {
	case tb < mpfFixMap:
		return []byte{tb}, nil
	case tb >= mpfFixStr && tb < mpfNil:
		n = int(tb - mpfFixStr)
	case tb == mpfStr8, tb == mpfBin8:
		n, err = d.length(1)
	case tb == mpfStr16, tb == mpfBin16:
		n, err = d.length(2)
	case tb == mpfStr32, tb == mpfBin32:
		n, err = d.length(4)
	case tb >= mpfUint8 && tb <= mpfUint64:
		n = 1 << (tb - mpfUint8)
	case tb == mpfNil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported type 0x%02x", tb)
	}
	if err != nil {
		return nil, err
	}
	return d.take(n)
}

// parseGames decodes every record after the file header
func parseGames(data []byte) []Game {
	if len(data) <= headerSize {
		return nil
	}

	d := &decoder{data: data, pos: headerSize}
	var games []Game

	for d.pos < len(d.data) && d.data[d.pos] != mpfNil {
		g, err := d.record()
		if err != nil {
			break
		}
		if g.Name != "" || g.CRC32 != 0 {
			games = append(games, g)
		}
	}

	return games
}

func (d *decoder) record() (Game, error) {
	var g Game

	count, err := d.mapHeader()
	if err != nil {
		return g, err
	}
	for i := 0; i < count; i++ {
		key, err := d.scalar()
		if err != nil {
			return g, err
		}
		value, err := d.scalar()
		if err != nil {
			return g, err
		}
		setGameField(&g, string(key), value)
	}
	return g, nil
}

// beUint interprets up to eight big-endian bytes as an unsigned number
func beUint(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

// setGameField stores one decoded key/value pair on g
func setGameField(g *Game, key string, value []byte) {
	switch key {
	case "name":
		g.Name = string(value)
	case "description":
		g.Description = string(value)
	case "genre":
		g.Genre = string(value)
	case "developer":
		g.Developer = string(value)
	case "publisher":
		g.Publisher = string(value)
	case "franchise":
		g.Franchise = string(value)
	case "esrb_rating":
		g.ESRBRating = string(value)
	case "serial":
		g.Serial = string(value)
	case "rom_name":
		g.ROMName = string(value)
	case "size":
		g.Size = beUint(value)
	case "releasemonth":
		g.ReleaseMonth = uint(beUint(value))
	case "releaseyear":
		g.ReleaseYear = uint(beUint(value))
	case "crc":
		g.CRC32 = uint32(beUint(value))
	case "md5":
		g.MD5 = hex.EncodeToString(value)
	}
}
