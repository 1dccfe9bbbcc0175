// Package bot — parser.go разбирает текстовые игровые команды.
// Команды пишутся обычным текстом («поднять», «к казна»), префиксы
// «/», «!» и «.» допускаются, но не обязательны.
package bot

import "strings"

// CommandParser разбирает русские текстовые команды.
type CommandParser struct {
	strippedPrefixes []string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		strippedPrefixes: []string{"/", "!", "."},
	}
}

// Parse разбирает текст на команду (в нижнем регистре) и аргументы.
// Возвращает ok=false для пустого текста.
func (p *CommandParser) Parse(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	for _, prefix := range p.strippedPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			break
		}
	}

	parts := strings.Fields(text)
	if len(parts) == 0 {
		return "", nil, false
	}

	// Telegram дописывает "@имябота" к слэш-командам в группах
	command := strings.ToLower(parts[0])
	if i := strings.IndexByte(command, '@'); i > 0 {
		command = command[:i]
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
