package signer

import (
	"context"
	"sort"

	"github.com/btcsuite/btcd/btcutil/psbt"
)

// containerKey is the composite key a signer is registered at. Uniqueness is
// on the whole (ordering, id) pair, the same id can live at different
// orderings.
type containerKey struct {
	ordering SignerOrdering
	id       SignerID
}

func (k containerKey) compare(other containerKey) int {
	if k.ordering != other.ordering {
		if k.ordering < other.ordering {
			return -1
		}
		return 1
	}
	return k.id.Compare(other.id)
}

type containerEntry struct {
	key    containerKey
	signer Signer
}

// Container is the ordered collection of signers of a wallet. Entries are
// kept sorted by (ordering, id) so that a signing pass always invokes the
// signers deterministically, lower orderings first. A Container is not safe
// for concurrent mutation, callers running a signing pass must treat it as
// exclusively owned for the duration of the pass.
type Container struct {
	entries []containerEntry
}

// NewContainer returns a new empty container.
func NewContainer() *Container {
	return &Container{}
}

// FromKeyMap returns a container with one built-in signer per secret of the
// given key map, each registered at the default ordering: single keys with
// their public key hash id, extended keys with their root fingerprint id.
func FromKeyMap(keys KeyMap) (*Container, error) {
	container := NewContainer()
	for _, secret := range keys {
		if err := secret.validate(); err != nil {
			return nil, err
		}
		if secret.IsExtended() {
			xprvSigner := NewXPrvSigner(secret.XPrv, secret.Path, secret.Origin)
			fingerprint, err := xprvSigner.RootFingerprint()
			if err != nil {
				return nil, err
			}
			container.Add(FingerprintID(fingerprint), DefaultSignerOrdering, xprvSigner)
			continue
		}
		container.Add(
			PubKeyHashID(secret.Key.PubKey()), DefaultSignerOrdering,
			NewPrivKeySigner(secret.Key),
		)
	}
	return container, nil
}

// Add registers a signer at the given (id, ordering) composite key and
// returns the signer previously registered at the same exact key, if any.
func (c *Container) Add(
	id SignerID, ordering SignerOrdering, sgn Signer,
) Signer {
	key := containerKey{ordering, id}
	i, found := c.search(key)
	if found {
		prev := c.entries[i].signer
		c.entries[i].signer = sgn
		return prev
	}

	c.entries = append(c.entries, containerEntry{})
	copy(c.entries[i+1:], c.entries[i:])
	c.entries[i] = containerEntry{key, sgn}
	return nil
}

// Remove drops the signer registered at the given composite key and returns
// it, or returns nil if the key is not occupied.
func (c *Container) Remove(id SignerID, ordering SignerOrdering) Signer {
	i, found := c.search(containerKey{ordering, id})
	if !found {
		return nil
	}
	removed := c.entries[i].signer
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	return removed
}

// Find returns the signer with the lowest ordering among those registered
// with the given id, or nil if the id is not registered at all.
func (c *Container) Find(id SignerID) Signer {
	// Entries are sorted by ordering first, the first id match wins.
	for _, entry := range c.entries {
		if entry.key.id == id {
			return entry.signer
		}
	}
	return nil
}

// IDs returns the ids of all registered signers in ascending (ordering, id)
// order, one per registry entry, ids registered at multiple orderings
// included once per ordering.
func (c *Container) IDs() []SignerID {
	ids := make([]SignerID, 0, len(c.entries))
	for _, entry := range c.entries {
		ids = append(ids, entry.key.id)
	}
	return ids
}

// Signers returns all registered signers in ascending (ordering, id) order.
func (c *Container) Signers() []Signer {
	signers := make([]Signer, 0, len(c.entries))
	for _, entry := range c.entries {
		signers = append(signers, entry.signer)
	}
	return signers
}

// Len returns the number of registered signers.
func (c *Container) Len() int {
	return len(c.entries)
}

// Clone returns a copy of the container sharing the signer instances with the
// original one.
func (c *Container) Clone() *Container {
	entries := make([]containerEntry, len(c.entries))
	copy(entries, c.entries)
	return &Container{entries}
}

// AsKeyMap exports the secrets of all registered signers backed by in-process
// keys, mapped by their public identifier. Signers that do not expose their
// secret are silently skipped.
func (c *Container) AsKeyMap() (KeyMap, error) {
	keys := make(KeyMap)
	for _, entry := range c.entries {
		secret := entry.signer.SecretKey()
		if secret == nil {
			continue
		}
		pubkey, err := secret.PublicKey()
		if err != nil {
			return nil, err
		}
		keys[pubkey] = secret
	}
	return keys, nil
}

// SignPsbt runs a signing pass over the given partial transaction: every
// registered signer is invoked in (ordering, id) order, once with the WholeTx
// index if it signs the whole transaction at once, otherwise once per input
// index in ascending order. The pass stops at the first failure, leaving on
// the transaction whatever signatures were added before it, callers needing
// all-or-nothing semantics must copy the transaction beforehand. Later
// signers observe what earlier ones produced, making room for policies like a
// cosigning step meaningful only after everybody else has signed.
func (c *Container) SignPsbt(ctx context.Context, ptx *psbt.Packet) error {
	for _, entry := range c.entries {
		if entry.signer.SignWholeTx() {
			if err := entry.signer.Sign(ctx, ptx, WholeTx); err != nil {
				return err
			}
			continue
		}
		for i := range ptx.Inputs {
			if err := entry.signer.Sign(ctx, ptx, i); err != nil {
				return err
			}
		}
	}
	return nil
}

// search returns the position of the entry with the given key, or the
// position where it would be inserted, along with whether it was found.
func (c *Container) search(key containerKey) (int, bool) {
	i := sort.Search(len(c.entries), func(i int) bool {
		return c.entries[i].key.compare(key) >= 0
	})
	found := i < len(c.entries) && c.entries[i].key == key
	return i, found
}
