package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"

	"github.com/turtacn/vaultgate/pkg/constants"
)

// fingerprintWords is indexed by 7-bit chunks of the derived key.
var fingerprintWords = [128]string{
	"acorn", "amber", "anchor", "apple", "arrow", "aspen", "atlas", "autumn",
	"badge", "bamboo", "banjo", "basil", "beacon", "birch", "bison", "blossom",
	"bridge", "bronze", "cabin", "cactus", "candle", "canyon", "carbon", "cedar",
	"cello", "chalk", "cherry", "cider", "cinder", "clover", "cobalt", "comet",
	"copper", "coral", "cosmos", "cotton", "crater", "crystal", "dahlia", "delta",
	"denim", "desert", "dolphin", "dragon", "dune", "eagle", "ember", "falcon",
	"feather", "fern", "fiddle", "flint", "forest", "fossil", "galaxy", "garnet",
	"geyser", "ginger", "glacier", "granite", "harbor", "hazel", "helium", "heron",
	"hollow", "honey", "horizon", "iris", "island", "ivory", "jasper", "jungle",
	"kettle", "lagoon", "lantern", "lemon", "lilac", "linen", "lotus", "maple",
	"marble", "meadow", "meteor", "mint", "mosaic", "nectar", "nickel", "oasis",
	"olive", "onyx", "orbit", "orchid", "otter", "pebble", "pepper", "pine",
	"plaza", "pollen", "prairie", "quartz", "quill", "raven", "reef", "ripple",
	"river", "saddle", "saffron", "sage", "sequoia", "shadow", "signal", "silver",
	"slate", "spruce", "summit", "sunset", "thistle", "thunder", "timber", "topaz",
	"tulip", "tundra", "valley", "velvet", "violet", "walnut", "willow", "zephyr",
}

// FingerprintPhrase derives the human-comparable phrase both devices show for
// a login approval request. It depends only on the account email and the
// requesting device's base64-encoded public key, so each side can compute it
// independently.
func FingerprintPhrase(email, publicKeyB64 string) (string, error) {
	publicKey, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", fmt.Errorf("public key is not valid base64: %w", err)
	}
	if len(publicKey) == 0 {
		return "", fmt.Errorf("public key is empty")
	}

	keyHash := sha256.Sum256(publicKey)
	reader := hkdf.Expand(sha256.New, keyHash[:], []byte(strings.ToLower(strings.TrimSpace(email))))
	derived := make([]byte, 8)
	if _, err := io.ReadFull(reader, derived); err != nil {
		return "", fmt.Errorf("failed to derive fingerprint: %w", err)
	}

	bits := binary.BigEndian.Uint64(derived)
	words := make([]string, 0, constants.FingerprintWordCount)
	for i := 0; i < constants.FingerprintWordCount; i++ {
		words = append(words, fingerprintWords[bits&0x7f])
		bits >>= 7
	}
	return strings.Join(words, "-"), nil
}
