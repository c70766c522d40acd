package blocks

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nostrdb-go/notedb/bech32ids"
	"github.com/nostrdb-go/notedb/invoice"
)

var urlSchemes = []string{"https://", "http://", "wss://", "ws://", "ftp://"}

// Parse tokenizes content into an ordered block tree.
func Parse(content string) []Block {
	var out []Block
	textStart := 0
	i := 0
	n := len(content)

	flushText := func(end int) {
		if end > textStart {
			out = append(out, text(content[textStart:end]))
		}
	}

	for i < n {
		c := content[i]

		if c == '#' && i+1 < n {
			if content[i+1] == '[' {
				if end, idx, ok := scanMentionIndex(content, i); ok {
					flushText(i)
					out = append(out, Block{Kind: KindMentionIndex, str: content[i:end], MentionIndex: idx})
					i = end
					textStart = i
					continue
				}
			} else if end, word, ok := scanHashtag(content, i); ok {
				flushText(i)
				out = append(out, Block{Kind: KindHashtag, str: content[i:end], Hashtag: word})
				i = end
				textStart = i
				continue
			}
		}

		if strings.HasPrefix(content[i:], "nostr:") {
			if end, dec, ok := scanBech32Mention(content, i+len("nostr:")); ok {
				flushText(i)
				out = append(out, Block{Kind: KindMentionBech32, str: content[i:end], Bech32: dec})
				i = end
				textStart = i
				continue
			}
		}

		if end, inv, ok := scanInvoice(content, i); ok {
			flushText(i)
			out = append(out, Block{Kind: KindInvoice, str: content[i:end], Invoice: inv})
			i = end
			textStart = i
			continue
		}

		if end, url, ok := scanURL(content, i); ok {
			flushText(i)
			out = append(out, Block{Kind: KindURL, str: content[i:end], URL: url})
			i = end
			textStart = i
			continue
		}

		_, size := utf8.DecodeRuneInString(content[i:])
		if size == 0 {
			size = 1
		}
		i += size
	}
	flushText(n)
	return out
}

// scanMentionIndex matches the legacy "#[n]" form at content[start:].
func scanMentionIndex(content string, start int) (end int, idx int, ok bool) {
	i := start + 2 // past "#["
	digitsStart := i
	for i < len(content) && content[i] >= '0' && content[i] <= '9' {
		i++
	}
	if i == digitsStart || i >= len(content) || content[i] != ']' {
		return 0, 0, false
	}
	n, err := strconv.Atoi(content[digitsStart:i])
	if err != nil {
		return 0, 0, false
	}
	return i + 1, n, true
}

// scanHashtag matches "#[alnum_]+" at content[start:] (start points at '#').
func scanHashtag(content string, start int) (end int, word string, ok bool) {
	i := start + 1
	wordStart := i
	for i < len(content) {
		r, size := utf8.DecodeRuneInString(content[i:])
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			i += size
			continue
		}
		break
	}
	if i == wordStart {
		return 0, "", false
	}
	return i, content[wordStart:i], true
}

func scanToBoundary(content string, start int) int {
	i := start
	for i < len(content) {
		r, size := utf8.DecodeRuneInString(content[i:])
		if unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}

func scanBech32Mention(content string, start int) (end int, dec *bech32ids.Decoded, ok bool) {
	if start >= len(content) {
		return 0, nil, false
	}
	e := scanToBoundary(content, start)
	token := content[start:e]
	// trim common trailing punctuation that isn't part of the identifier.
	token = strings.TrimRight(token, ".,!?)\"'")
	d, err := bech32ids.Decode(token)
	if err != nil {
		return 0, nil, false
	}
	return start + len(token), d, true
}

func scanInvoice(content string, start int) (end int, inv *invoice.Invoice, ok bool) {
	rest := content[start:]
	isLightningURI := strings.HasPrefix(rest, "lightning:")
	isBareBolt11 := strings.HasPrefix(rest, "lnbc") || strings.HasPrefix(rest, "lntb") ||
		strings.HasPrefix(rest, "lnbcrt") || strings.HasPrefix(rest, "lntbs")
	if !isLightningURI && !isBareBolt11 {
		return 0, nil, false
	}
	e := scanToBoundary(content, start)
	token := strings.TrimRight(content[start:e], ".,!?)\"'")
	parsed, err := invoice.Parse(token)
	if err != nil {
		return 0, nil, false
	}
	return start + len(token), parsed, true
}

func scanURL(content string, start int) (end int, url string, ok bool) {
	for _, scheme := range urlSchemes {
		if strings.HasPrefix(content[start:], scheme) {
			e := scanToBoundary(content, start)
			token := strings.TrimRight(content[start:e], ".,!?)")
			return start + len(token), token, true
		}
	}
	return 0, "", false
}
