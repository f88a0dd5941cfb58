package normalize

import "github.com/spigell/careerboost/internal/ai/recovery"

const (
	LetterFallback     = "Не удалось сгенерировать сопроводительное письмо. Попробуйте ещё раз чуть позже."
	ShortEmailFallback = "Не удалось сгенерировать короткое письмо. Попробуйте ещё раз чуть позже."
)

type CoverLetter struct {
	Letter     string `json:"letter"`
	ShortEmail string `json:"short_email"`
}

func Letter(obj recovery.Object) CoverLetter {
	return CoverLetter{
		Letter:     Text(obj.Get("letter"), LetterFallback),
		ShortEmail: Text(obj.Get("short_email"), ShortEmailFallback),
	}
}
