package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var padronPattern = regexp.MustCompile(`^(\d+)-(\d{4})$`)

// ParsePadron splits a padron such as "10-0036" into zone value and sequence.
func ParsePadron(padron string) (zona int, secuencia int, ok bool) {
	m := padronPattern.FindStringSubmatch(strings.TrimSpace(padron))
	if m == nil {
		return 0, 0, false
	}
	zona, _ = strconv.Atoi(m[1])
	secuencia, _ = strconv.Atoi(m[2])
	return zona, secuencia, true
}

func FormatPadron(zonaValor, secuencia int) string {
	return fmt.Sprintf("%d-%04d", zonaValor, secuencia)
}

// SiguientePadron returns the next free padron of a zone given the padrones
// already assigned in it.
func SiguientePadron(zonaValor int, existentes []string) string {
	maxSeq := 0
	for _, p := range existentes {
		z, seq, ok := ParsePadron(p)
		if !ok || z != zonaValor {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return FormatPadron(zonaValor, maxSeq+1)
}
