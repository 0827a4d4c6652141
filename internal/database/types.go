package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/kozaktomas/visual-search/internal/fingerprint"
	"github.com/kozaktomas/visual-search/internal/ranking"
)

// ErrNotFound is returned by writers when the addressed product does not exist.
var ErrNotFound = errors.New("product not found")

// StoredProduct represents a catalog product stored in the database
type StoredProduct struct {
	ID          string
	Name        string
	Category    string
	ImageURL    string // http(s) URL or data: URL
	Fingerprint fingerprint.Fingerprint
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Entry returns the ranking view of the product.
func (p *StoredProduct) Entry() ranking.Entry {
	return ranking.Entry{ID: p.ID, Fingerprint: p.Fingerprint}
}

// CategoryKey returns the normalized category used for filtering.
func (p *StoredProduct) CategoryKey() string {
	return NormalizeCategory(p.Category)
}

// EncodeFingerprint returns the image_hash and hash_bits column values.
func EncodeFingerprint(fp fingerprint.Fingerprint) (string, int, error) {
	text, err := fp.MarshalText()
	if err != nil {
		return "", 0, err
	}
	return string(text), fp.Len(), nil
}

// DecodeFingerprint rebuilds a fingerprint from its stored columns.
func DecodeFingerprint(imageHash string, hashBits int) (fingerprint.Fingerprint, error) {
	fp, err := fingerprint.ParseHex(imageHash)
	if err != nil {
		return fingerprint.Fingerprint{}, err
	}
	if fp.Len() != hashBits {
		return fingerprint.Fingerprint{}, fmt.Errorf("stored hash has %d bits, hash_bits says %d", fp.Len(), hashBits)
	}
	return fp, nil
}
