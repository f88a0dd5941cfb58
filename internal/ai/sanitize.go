package ai

import "regexp"

const filteredMarker = "[filtered]"

// Best-effort filter for common prompt-injection phrases. It is not a security boundary.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(ignore|disregard|forget|override)\s+(all\s+|any\s+)?(of\s+)?(the\s+|your\s+)?(previous|prior|above|earlier|preceding)\s+(instructions?|prompts?|rules|messages)`),
	regexp.MustCompile(`(?i)(игнорируй|проигнорируй|забудь|отмени)\s+(все\s+)?(предыдущие|прошлые|вышеуказанные)\s+(инструкции|указания|правила)`),
	regexp.MustCompile(`(?i)\byou\s+are\s+now\s+(in\s+)?(developer|dan|jailbreak|god)\s*mode\b`),
	regexp.MustCompile(`(?i)\b(reveal|print|show)\s+(me\s+)?(your\s+|the\s+)?system\s+prompt\b`),
	regexp.MustCompile(`(?i)<\|(im_start|im_end|system|endoftext)\|>`),
}

var roleTag = regexp.MustCompile(`(?i)\[(system|assistant|developer)\]`)

// Sanitize neutralises known injection phrases and bracketed role tags in untrusted prompt text.
func Sanitize(s string) string {
	for _, pattern := range injectionPatterns {
		s = pattern.ReplaceAllString(s, filteredMarker)
	}
	return roleTag.ReplaceAllString(s, "($1)")
}
