package greeting

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/eventflow/checkin-backend/internal/models"
)

var greetings = []string{
	"Olá %s! Bem-vindo ao evento! 🎉",
	"Oi %s! Que bom te ver aqui! ✨",
	"Bem-vindo %s! O evento está incrível hoje! 🚀",
	"Olá %s! Esperamos que aproveite muito o evento! 🎯",
}

var tips = []string{
	"Não esqueça de conferir a agenda no app!",
	"O coffee break será às 15h no hall principal.",
	"Há uma área de networking no 2º andar.",
	"As palestras principais são no auditório central.",
}

func fallbackGreeting(p *models.Participant) *Greeting {
	return &Greeting{
		Greeting:        fmt.Sprintf(greetings[rand.Intn(len(greetings))], p.Name),
		Tip:             tips[rand.Intn(len(tips))],
		ParticipantType: p.Type,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Fallback:        true,
	}
}

func fallbackAssistance(query string, p *models.Participant) string {
	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "agenda") || strings.Contains(q, "programação"):
		return fmt.Sprintf("Olá %s! A agenda completa está disponível no app. As principais palestras são: Keynote às 9h, Tech Talks às 14h, e Networking às 17h.", p.Name)
	case strings.Contains(q, "onde") || strings.Contains(q, "localização") || strings.Contains(q, "local"):
		return "O evento acontece em 3 andares: Térreo (recepção e coffee), 1º andar (salas de workshop), 2º andar (auditório principal e networking)."
	case strings.Contains(q, "wifi") || strings.Contains(q, "internet"):
		return `A rede WiFi é "EventoTech" e a senha é "TechEvent2024". Há também pontos de carregamento em todos os andares.`
	default:
		return fmt.Sprintf("Olá %s! Como posso ajudá-lo hoje? Posso fornecer informações sobre agenda, localização, WiFi ou outras dúvidas sobre o evento.", p.Name)
	}
}
