package errclass

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	english    = language.English
	portuguese = language.BrazilianPortuguese

	matcher = language.NewMatcher([]language.Tag{english, portuguese})
)

// Languages lists the supported message languages, default first.
func Languages() []language.Tag { return []language.Tag{english, portuguese} }

// MatchLanguage picks the best supported language for an Accept-Language
// header value.
func MatchLanguage(accept string) language.Tag {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return english
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return english
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return english
	}
	return Languages()[idx]
}

func printer(lang language.Tag) *message.Printer {
	_, idx, conf := matcher.Match(lang)
	if conf == language.No {
		return message.NewPrinter(english)
	}
	return message.NewPrinter(Languages()[idx])
}

func lookup(p *message.Printer, key string) string {
	return p.Sprintf(message.Key(key, key))
}

func messageKey(k Kind) string { return "error." + string(k) + ".message" }
func titleKey(k Kind) string   { return "error." + string(k) + ".title" }
func actionKey(a Action) string {
	return "action." + string(a)
}

var catalog = map[language.Tag]map[string]string{
	english: {
		"error.offline.message":     "You appear to be offline. Check your connection and try again.",
		"error.offline.title":       "You're offline",
		"error.network.message":     "We could not reach the server. Please try again.",
		"error.network.title":       "Connection problem",
		"error.validation.message":  "Some of the information provided is invalid.",
		"error.validation.title":    "Invalid request",
		"error.credentials.message": "Incorrect username or password.",
		"error.credentials.title":   "Sign in required",
		"error.permission.message":  "You do not have permission to do this.",
		"error.permission.title":    "Access denied",
		"error.not_found.message":   "The page or item you are looking for was not found.",
		"error.not_found.title":     "Page not found",
		"error.server.message":      "Something went wrong on our side. Please try again later.",
		"error.server.title":        "Something went wrong",
		"error.maintenance.message": "We are down for maintenance. Please come back soon.",
		"error.maintenance.title":   "Under maintenance",
		"error.unknown.message":     "An unexpected error occurred.",
		"error.unknown.title":       "Unexpected error",
		"action.home":               "Go home",
		"action.back":               "Go back",
		"action.retry":              "Try again",
		"action.contact":            "Contact us",
		"action.search":             "Search the site",
	},
	portuguese: {
		"error.offline.message":     "Você parece estar offline. Verifique sua conexão e tente novamente.",
		"error.offline.title":       "Você está offline",
		"error.network.message":     "Não foi possível conectar ao servidor. Tente novamente.",
		"error.network.title":       "Problema de conexão",
		"error.validation.message":  "Alguns dos dados informados são inválidos.",
		"error.validation.title":    "Requisição inválida",
		"error.credentials.message": "Usuário ou senha incorretos.",
		"error.credentials.title":   "Acesso necessário",
		"error.permission.message":  "Você não tem permissão para fazer isso.",
		"error.permission.title":    "Acesso negado",
		"error.not_found.message":   "A página ou item que você procura não foi encontrado.",
		"error.not_found.title":     "Página não encontrada",
		"error.server.message":      "Algo deu errado do nosso lado. Tente novamente mais tarde.",
		"error.server.title":        "Algo deu errado",
		"error.maintenance.message": "Estamos em manutenção. Volte em breve.",
		"error.maintenance.title":   "Em manutenção",
		"error.unknown.message":     "Ocorreu um erro inesperado.",
		"error.unknown.title":       "Erro inesperado",
		"action.home":               "Ir para o início",
		"action.back":               "Voltar",
		"action.retry":              "Tentar novamente",
		"action.contact":            "Fale conosco",
		"action.search":             "Buscar no site",
	},
}

func init() {
	for tag, msgs := range catalog {
		for key, msg := range msgs {
			if err := message.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
}
