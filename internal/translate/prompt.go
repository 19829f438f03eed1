package translate

import (
	"fmt"
	"strings"

	"github.com/leonardotrapani/voicebridge/internal/language"
)

// BuildSystemPrompt asks a chat model for a plain translation of a voice
// message transcript. glossary is a comma separated list of terms to keep.
func BuildSystemPrompt(source, target, glossary string) string {
	from := "the detected language"
	if !language.IsAuto(source) {
		from = languageName(source)
	}

	var b strings.Builder
	b.WriteString("You are a translator for chat voice messages. The input is a speech-to-text transcript.\n\n")
	fmt.Fprintf(&b, "Translate from %s to %s.\n", from, languageName(target))
	b.WriteString("\nRules:\n")
	b.WriteString("- Preserve the original meaning, tone and register\n")
	b.WriteString("- Keep names, numbers and emoji unchanged\n")
	b.WriteString("- Do not add explanations or notes\n")
	b.WriteString("- Output ONLY the translated text, nothing else\n")
	if glossary = strings.TrimSpace(glossary); glossary != "" {
		fmt.Fprintf(&b, "\nKeep these terms untranslated: %s\n", glossary)
	}
	return b.String()
}

func languageName(code string) string {
	lang := language.FromCode(code)
	if language.IsAuto(lang.Code) {
		return code
	}
	return lang.Name
}
