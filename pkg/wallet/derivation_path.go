package wallet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

const (
	purposeBip44 = 44

	derivedPrefix  = "m"
	importedPrefix = "i"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet account
type DerivationPath []uint32

// Bip44Path returns the path m/44'/coin'/account'/0/index.
func Bip44Path(coinType, account, index uint32) DerivationPath {
	return DerivationPath{
		hdkeychain.HardenedKeyStart + purposeBip44,
		hdkeychain.HardenedKeyStart + coinType,
		hdkeychain.HardenedKeyStart + account,
		0,
		index,
	}
}

// ImportPath returns the synthetic path assigned to an externally imported
// key: it has the bip44 shape but the "i" prefix marks it as not derived.
func ImportPath(coinType, account, index uint32) string {
	return Bip44Path(coinType, account, index).ImportString()
}

// IsImportedPath returns whether the given path carries the import prefix.
func IsImportedPath(strPath string) bool {
	elems := strings.SplitN(strPath, "/", 2)
	return strings.TrimSpace(elems[0]) == importedPrefix
}

// ParseDerivationPath converts a derivation path string to the
// internal binary representation. Both derived (m/...) and imported (i/...)
// absolute paths are accepted, as well as relative ones of at least two
// levels. Elements may be decimal or 0x-prefixed hex.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	if strPath == "" {
		return nil, ErrNullDerivationPath
	}

	elems := strings.Split(strPath, "/")
	if len(elems) < 2 {
		return nil, ErrMalformedDerivationPath
	}
	for _, elem := range elems {
		if elem == "" {
			return nil, ErrMalformedDerivationPath
		}
	}
	if prefix := strings.TrimSpace(elems[0]); prefix == derivedPrefix || prefix == importedPrefix {
		elems = elems[1:]
	}

	path := make(DerivationPath, 0, len(elems))
	for _, elem := range elems {
		step, err := parsePathElem(elem)
		if err != nil {
			return nil, err
		}
		path = append(path, step)
	}
	return path, nil
}

func parsePathElem(elem string) (uint32, error) {
	elem = strings.TrimSpace(elem)
	hardened := strings.HasSuffix(elem, "'")
	if hardened {
		elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
	}

	v, err := strconv.ParseUint(elem, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid elem '%s' in path", elem)
	}
	if !hardened {
		return uint32(v), nil
	}
	if v >= hdkeychain.HardenedKeyStart {
		return 0, fmt.Errorf(
			"elem %d must be in hardened range [0, %d]", v, hdkeychain.HardenedKeyStart-1,
		)
	}
	return hdkeychain.HardenedKeyStart + uint32(v), nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	return path.format(derivedPrefix)
}

// ImportString is like String but with the import prefix.
func (path DerivationPath) ImportString() string {
	return path.format(importedPrefix)
}

func (path DerivationPath) format(prefix string) string {
	if len(path) <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(prefix)
	for _, step := range path {
		b.WriteByte('/')
		if step >= hdkeychain.HardenedKeyStart {
			b.WriteString(strconv.FormatUint(uint64(step-hdkeychain.HardenedKeyStart), 10))
			b.WriteByte('\'')
			continue
		}
		b.WriteString(strconv.FormatUint(uint64(step), 10))
	}
	return b.String()
}
