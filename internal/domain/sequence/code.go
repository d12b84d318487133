// Package sequence calcula los códigos secuenciales legibles (CLI-0001, OPP-0042)
// de cada familia de entidades.
package sequence

import (
	"fmt"
	"strconv"
	"strings"
)

// padWidth ancho mínimo del sufijo numérico; no hay tope superior.
const padWidth = 4

// Next devuelve el código siguiente a lastCode dentro de la familia prefix.
// Si lastCode está vacío o su sufijo no es numérico, la secuencia empieza en 1.
func Next(prefix, lastCode string) string {
	return Format(prefix, Suffix(lastCode)+1)
}

// Suffix extrae el número después del último guion; 0 si no existe o no es parseable.
func Suffix(code string) int {
	i := strings.LastIndex(code, "-")
	if i < 0 {
		return 0
	}
	n, err := strconv.Atoi(code[i+1:])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Format construye prefix-NNNN con relleno de ceros a 4 dígitos.
func Format(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, padWidth, n)
}
