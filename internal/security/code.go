package security

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// CodeWords is the number of words in a verification code.
	CodeWords = 4

	// CodeSeparator joins the words of a code.
	CodeSeparator = "-"
)

// GenerateCode produces a one-time verification code of CodeWords distinct
// words drawn uniformly from the wordlist, e.g. "apple-river-stone-quartz".
// The code is a possession proof placed in a public profile bio, not a
// cryptographic secret, but it must stay unguessable within the verification
// window, so selection uses crypto/rand.
func GenerateCode() (string, error) {
	picked := make([]string, 0, CodeWords)
	used := make(map[int]struct{}, CodeWords)

	for len(picked) < CodeWords {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(wordlist))))
		if err != nil {
			return "", fmt.Errorf("generate verification code: %w", err)
		}
		i := int(n.Int64())
		if _, dup := used[i]; dup {
			continue
		}
		used[i] = struct{}{}
		picked = append(picked, wordlist[i])
	}

	return strings.Join(picked, CodeSeparator), nil
}
