package tenant

import "strings"

// Slugify convierte un nombre en un slug URL-safe: minúsculas, corridas de
// no-alfanuméricos colapsadas a un solo "-", sin separadores en los bordes.
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	lastDash := true // evita dash inicial
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
