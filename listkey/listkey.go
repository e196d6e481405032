package listkey

import (
	"strconv"
	"strings"
)

// Kind identifies which array of a list a key refers to.
type Kind uint8

const (
	// Other marks keys that are not list keys.
	Other Kind = iota
	// IDs is the identifier array of a list.
	IDs
	// Codes is the encoded-vector array of a list.
	Codes
)

const (
	listPrefix = "list-"
	idsSuffix  = "ids"
	codeSuffix = "codes"
)

func (k Kind) String() string {
	switch k {
	case IDs:
		return idsSuffix
	case Codes:
		return codeSuffix
	default:
		return "other"
	}
}

// Encode returns the storage key of the given array of list listNo.
// It panics if kind is Other or listNo is negative.
func Encode(listNo int, kind Kind) string {
	if listNo < 0 {
		panic("listkey: negative list number")
	}
	var suffix string
	switch kind {
	case IDs:
		suffix = idsSuffix
	case Codes:
		suffix = codeSuffix
	default:
		panic("listkey: cannot encode kind " + kind.String())
	}

	var sb strings.Builder
	sb.Grow(len(listPrefix) + 20 + 1 + len(suffix))
	sb.WriteString(listPrefix)
	sb.WriteString(strconv.Itoa(listNo))
	sb.WriteByte('/')
	sb.WriteString(suffix)
	return sb.String()
}

// Decode classifies key. It returns (Other, 0) for any key that is not
// exactly "list-<n>/ids" or "list-<n>/codes" with a canonical decimal n.
func Decode(key string) (Kind, int) {
	slash := strings.LastIndexByte(key, '/')
	if slash < 0 {
		return Other, 0
	}
	list, suffix := key[:slash], key[slash+1:]

	var kind Kind
	switch suffix {
	case idsSuffix:
		kind = IDs
	case codeSuffix:
		kind = Codes
	default:
		return Other, 0
	}

	digits, ok := strings.CutPrefix(list, listPrefix)
	if !ok {
		// Also rejects extra leading segments such as "foo/list-3".
		return Other, 0
	}
	n, ok := parseListNo(digits)
	if !ok {
		return Other, 0
	}
	return kind, n
}

// parseListNo accepts only canonical non-negative decimals that fit in an int.
func parseListNo(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Codec encodes keys below an optional namespace prefix, so that several
// stores can share one backend. The zero Codec uses the bare key format.
type Codec struct {
	Prefix string
}

// NewCodec returns a Codec for prefix. Surrounding slashes are trimmed.
func NewCodec(prefix string) Codec {
	return Codec{Prefix: strings.Trim(prefix, "/")}
}

// Encode returns the namespaced key of the given array of list listNo.
func (c Codec) Encode(listNo int, kind Kind) string {
	if c.Prefix == "" {
		return Encode(listNo, kind)
	}
	return c.Prefix + "/" + Encode(listNo, kind)
}

// Decode strips the namespace prefix and classifies the rest of key.
// Keys outside the namespace are Other.
func (c Codec) Decode(key string) (Kind, int) {
	if c.Prefix == "" {
		return Decode(key)
	}
	rest, ok := strings.CutPrefix(key, c.Prefix+"/")
	if !ok {
		return Other, 0
	}
	return Decode(rest)
}

// ListPrefix is the key prefix that covers every list key of the codec.
// Backends that enumerate keys use it to narrow a listing.
func (c Codec) ListPrefix() string {
	if c.Prefix == "" {
		return listPrefix
	}
	return c.Prefix + "/" + listPrefix
}
