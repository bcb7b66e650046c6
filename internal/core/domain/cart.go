package domain

import (
	"sort"
	"strings"
	"time"
)

// Cart is the anonymous cart bound to a browser session key.
type Cart struct {
	ID         string
	SessionKey string
	CreatedAt  time.Time
}

// CartItem is one line item. Exactly one of CartID or AccountID is set.
type CartItem struct {
	ID         string
	CartID     *string
	AccountID  *string
	ProductID  string
	Variations []string
	Quantity   int
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Key returns the merge identity of the line item.
func (i CartItem) Key() string {
	return VariationKey(i.ProductID, i.Variations)
}

// CartOwner identifies whose cart an operation targets.
type CartOwner struct {
	AccountID  string
	SessionKey string
}

// IsAccount reports whether the owner is an authenticated account.
func (o CartOwner) IsAccount() bool {
	return o.AccountID != ""
}

// CartOwnerFor resolves the owner for a request: the principal when logged in, else the session key.
func CartOwnerFor(rc RequestContext) CartOwner {
	if rc.IsAuthenticated() {
		return CartOwner{AccountID: rc.Principal.AccountID}
	}
	return CartOwner{SessionKey: rc.SessionKey}
}

// NormalizeVariations trims, de-duplicates and sorts variation ids so that
// equal selections compare equal regardless of input order.
func NormalizeVariations(variations []string) []string {
	seen := make(map[string]struct{}, len(variations))
	out := make([]string, 0, len(variations))
	for _, v := range variations {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`, `|`, `\|`)

// VariationKey is the exact product plus variation-set identity used when merging carts.
// Separators inside ids are escaped, so distinct sets never share a key.
func VariationKey(productID string, variations []string) string {
	normalized := NormalizeVariations(variations)
	escaped := make([]string, len(normalized))
	for i, v := range normalized {
		escaped[i] = keyEscaper.Replace(v)
	}
	return keyEscaper.Replace(productID) + "|" + strings.Join(escaped, ",")
}
