// Package format builds human-readable boleta numbers.
package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const DefaultNumeroTemplate = "B-{YYYY}{MM}-{SEQ6}"

// Numero renders template for the billing period and sequence. It performs
// no I/O; the sequence is allocated by the caller.
func Numero(template string, anio, mes int, seq int64) (string, error) {
	if template == "" {
		return "", fmt.Errorf("boleta number template is empty")
	}
	if seq <= 0 {
		return "", fmt.Errorf("invalid boleta sequence: %d", seq)
	}
	if mes < 1 || mes > 12 {
		return "", fmt.Errorf("invalid boleta month: %d", mes)
	}

	out := template
	out = strings.ReplaceAll(out, "{YYYY}", fmt.Sprintf("%04d", anio))
	out = strings.ReplaceAll(out, "{YY}", fmt.Sprintf("%02d", anio%100))
	out = strings.ReplaceAll(out, "{MM}", fmt.Sprintf("%02d", mes))
	out = strings.ReplaceAll(out, "{SEQ}", strconv.FormatInt(seq, 10))
	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		match := seqPadRe.FindStringSubmatch(m)
		width, err := strconv.Atoi(match[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, seq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in boleta number: %s", out)
	}
	return out, nil
}
