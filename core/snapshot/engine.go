// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"

	"github.com/CKS-Systems/manifest-sub000/core/types"
	"github.com/CKS-Systems/manifest-sub000/logging"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	ErrNoSnapshot        = errors.New("no snapshot found")
	ErrSnapshotCorrupt   = errors.New("snapshot hash mismatch")
	ErrSlotNotIncreasing = errors.New("snapshot slot is not after the latest one")
	ErrEngineClosed      = errors.New("snapshot engine is closed")
)

var (
	headerPrefix  = []byte("h/")
	accountPrefix = []byte("a/")
)

// Kind tells which account type a snapshot entry restores into.
type Kind byte

const (
	KindMarket Kind = 'm'
	KindGlobal Kind = 'g'
)

func (k Kind) String() string {
	switch k {
	case KindMarket:
		return "market"
	case KindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Account is the raw byte image of one market or global account.
type Account struct {
	Kind Kind
	Key  types.Pubkey
	Data []byte
}

// Info describes a stored snapshot without loading its accounts.
type Info struct {
	Slot    uint32 `json:"slot"`
	Markets int    `json:"markets"`
	Globals int    `json:"globals"`
	Bytes   int    `json:"bytes"`
	Hash    string `json:"hash"`
}

type entryHeader struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
	Size int    `json:"size"`
}

type header struct {
	Info
	Accounts []entryHeader `json:"accounts"`
}

// Engine persists account images keyed by slot in a leveldb database and
// keeps only the most recent ones.
type Engine struct {
	log *logging.Logger
	cfg Config

	mu     sync.Mutex
	db     *leveldb.DB
	closed bool
}

func New(log *logging.Logger, cfg Config) (*Engine, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		db  *leveldb.DB
		err error
	)
	if cfg.Storage == memDB {
		db, err = leveldb.Open(storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(cfg.DBPath, &opt.Options{
			Filter:          filter.NewBloomFilter(10),
			BlockCacher:     opt.NoCacher,
			OpenFilesCacher: opt.NoCacher,
		})
	}
	if err != nil {
		return nil, errors.Wrap(err, "could not open snapshot database")
	}

	log.Info("snapshot engine started",
		logging.String("storage", cfg.Storage),
		logging.String("path", cfg.DBPath),
		logging.Int("keep-recent", cfg.KeepRecent),
	)
	return &Engine{
		log: log,
		cfg: cfg,
		db:  db,
	}, nil
}

// ReloadConf updates the internal configuration of the engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.Info("updating log level",
			logging.String("old", e.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		e.log.SetLevel(cfg.Level.Get())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cfg.KeepRecent > 0 {
		e.cfg.KeepRecent = cfg.KeepRecent
	}
	e.cfg.Level = cfg.Level
}

// Save writes accounts as the snapshot for slot, then prunes snapshots
// beyond the configured number to keep.
func (e *Engine) Save(slot uint32, accounts []Account) (Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Info{}, ErrEngineClosed
	}

	infos, err := e.list()
	if err != nil {
		return Info{}, err
	}
	if n := len(infos); n > 0 && infos[n-1].Slot >= slot {
		return Info{}, errors.Wrapf(ErrSlotNotIncreasing, "latest %d, got %d", infos[n-1].Slot, slot)
	}

	sorted := make([]Account, len(accounts))
	copy(sorted, accounts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Key.Compare(sorted[j].Key) < 0
	})

	h := header{Info: Info{Slot: slot, Hash: hashAccounts(sorted)}}
	batch := new(leveldb.Batch)
	for _, acc := range sorted {
		switch acc.Kind {
		case KindMarket:
			h.Markets++
		case KindGlobal:
			h.Globals++
		default:
			return Info{}, errors.Errorf("unknown account kind %q", byte(acc.Kind))
		}
		h.Bytes += len(acc.Data)
		h.Accounts = append(h.Accounts, entryHeader{
			Kind: acc.Kind,
			Key:  acc.Key.String(),
			Size: len(acc.Data),
		})
		batch.Put(accountKey(slot, acc.Kind, acc.Key), acc.Data)
	}

	raw, err := json.Marshal(h)
	if err != nil {
		return Info{}, errors.Wrap(err, "could not encode snapshot header")
	}
	batch.Put(headerKey(slot), raw)

	infos = append(infos, h.Info)
	if excess := len(infos) - e.cfg.KeepRecent; excess > 0 {
		for _, old := range infos[:excess] {
			e.prune(batch, old.Slot)
		}
	}

	if err := e.db.Write(batch, &opt.WriteOptions{Sync: e.cfg.Storage != memDB}); err != nil {
		return Info{}, errors.Wrap(err, "could not write snapshot")
	}

	e.log.Info("snapshot saved",
		logging.Uint32("slot", slot),
		logging.Int("markets", h.Markets),
		logging.Int("globals", h.Globals),
		logging.Int("bytes", h.Bytes),
		logging.String("hash", h.Hash),
	)
	return h.Info, nil
}

func (e *Engine) prune(batch *leveldb.Batch, slot uint32) {
	batch.Delete(headerKey(slot))
	it := e.db.NewIterator(util.BytesPrefix(accountSlotPrefix(slot)), nil)
	defer it.Release()
	for it.Next() {
		key := make([]byte, len(it.Key()))
		copy(key, it.Key())
		batch.Delete(key)
	}
	e.log.Debug("pruning snapshot", logging.Uint32("slot", slot))
}

// List returns the stored snapshots, oldest first.
func (e *Engine) List() ([]Info, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	return e.list()
}

func (e *Engine) list() ([]Info, error) {
	it := e.db.NewIterator(util.BytesPrefix(headerPrefix), nil)
	defer it.Release()

	infos := []Info{}
	for it.Next() {
		var h header
		if err := json.Unmarshal(it.Value(), &h); err != nil {
			return nil, errors.Wrapf(err, "could not decode snapshot header %x", it.Key())
		}
		infos = append(infos, h.Info)
	}
	return infos, errors.Wrap(it.Error(), "could not list snapshots")
}

// Latest returns the most recent snapshot info.
func (e *Engine) Latest() (Info, error) {
	infos, err := e.List()
	if err != nil {
		return Info{}, err
	}
	if len(infos) == 0 {
		return Info{}, ErrNoSnapshot
	}
	return infos[len(infos)-1], nil
}

// Load reads back the accounts saved at slot, checking them against the
// hash recorded when they were written.
func (e *Engine) Load(slot uint32) (Info, []Account, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return Info{}, nil, ErrEngineClosed
	}

	raw, err := e.db.Get(headerKey(slot), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Info{}, nil, errors.Wrapf(ErrNoSnapshot, "slot %d", slot)
	}
	if err != nil {
		return Info{}, nil, errors.Wrap(err, "could not read snapshot header")
	}
	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return Info{}, nil, errors.Wrap(err, "could not decode snapshot header")
	}

	accounts := make([]Account, 0, len(h.Accounts))
	for _, eh := range h.Accounts {
		key, err := types.PubkeyFromString(eh.Key)
		if err != nil {
			return Info{}, nil, err
		}
		data, err := e.db.Get(accountKey(slot, eh.Kind, key), nil)
		if err != nil {
			return Info{}, nil, errors.Wrapf(ErrSnapshotCorrupt, "missing %s account %s: %v", eh.Kind, eh.Key, err)
		}
		accounts = append(accounts, Account{Kind: eh.Kind, Key: key, Data: data})
	}

	if got := hashAccounts(accounts); got != h.Hash {
		e.log.Error("snapshot hash mismatch",
			logging.Uint32("slot", slot),
			logging.String("expected", h.Hash),
			logging.String("got", got),
		)
		return Info{}, nil, errors.Wrapf(ErrSnapshotCorrupt, "slot %d", slot)
	}
	return h.Info, accounts, nil
}

// LoadLatest loads the most recent snapshot.
func (e *Engine) LoadLatest() (Info, []Account, error) {
	info, err := e.Latest()
	if err != nil {
		return Info{}, nil, err
	}
	return e.Load(info.Slot)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.db.Close()
}

func hashAccounts(accounts []Account) string {
	h := sha256.New()
	var size [8]byte
	for _, acc := range accounts {
		h.Write([]byte{byte(acc.Kind)})
		h.Write(acc.Key[:])
		binary.BigEndian.PutUint64(size[:], uint64(len(acc.Data)))
		h.Write(size[:])
		h.Write(acc.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func headerKey(slot uint32) []byte {
	return binary.BigEndian.AppendUint32(bytes.Clone(headerPrefix), slot)
}

func accountSlotPrefix(slot uint32) []byte {
	return binary.BigEndian.AppendUint32(bytes.Clone(accountPrefix), slot)
}

func accountKey(slot uint32, kind Kind, key types.Pubkey) []byte {
	k := append(accountSlotPrefix(slot), byte(kind))
	return append(k, key[:]...)
}
