package services

import "strings"

// RepairJSON aplica heurísticas de reparación sobre la salida JSON de un
// LLM antes de deserializarla: quita fences de markdown y texto
// circundante, elimina comas colgantes y cierra llaves/corchetes de
// objetos truncados. No valida el resultado; el Unmarshal posterior es
// quien decide.
func RepairJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripFences(s)
	s = extractJSON(s)
	s = stripTrailingCommas(s)
	s = closeTruncated(s)
	return s
}

// stripFences elimina bloques ```json ... ``` dejando solo el interior.
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	start := strings.Index(s, "```")
	rest := s[start+3:]
	// la etiqueta de lenguaje va hasta el primer salto de línea
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// extractJSON recorta el texto al primer '{' o '[' y su cierre
// correspondiente, descartando prosa antes o después.
func extractJSON(s string) string {
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	if start < 0 || (arrStart >= 0 && arrStart < start) {
		start = arrStart
	}
	if start < 0 {
		return s
	}
	s = s[start:]

	// buscar el cierre balanceado, ignorando llaves dentro de strings
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	// sin cierre balanceado: devolver lo que hay para que closeTruncated actúe
	return s
}

// stripTrailingCommas elimina comas inmediatamente antes de '}' o ']'.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			// mirar el siguiente carácter no-blanco
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\n' || s[j] == '\t' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// closeTruncated cierra strings, corchetes y llaves abiertos de una
// respuesta cortada a mitad de camino.
func closeTruncated(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) > 0 && stack[len(stack)-1] == '{' {
				stack = stack[:len(stack)-1]
			}
		case ']':
			if len(stack) > 0 && stack[len(stack)-1] == '[' {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if !inString {
		// una coma o dos puntos colgantes al final invalidan el cierre
		trimmed := strings.TrimRight(s, " \n\t\r")
		if strings.HasSuffix(trimmed, ",") {
			s = strings.TrimRight(trimmed, ",")
		} else if strings.HasSuffix(trimmed, ":") {
			s = trimmed + "null"
		}
	} else {
		s += `"`
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			s += "}"
		} else {
			s += "]"
		}
	}
	return s
}
