package bot

// Built-in categories seeded into an empty rule store. Priorities keep
// the historical check order: greeting, farewell, help, name.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: "greeting",
			Keywords: []string{"oi", "olá", "hello", "ola", "bom dia", "boa tarde", "boa noite"},
			Responses: []string{
				"Olá! Como posso ajudar você hoje?",
				"Oi! Em que posso ser útil?",
				"Olá! Estou aqui para ajudar.",
				"Oi! Como você está?",
			},
			Priority: 1,
			Active:   true,
		},
		{
			Category: "farewell",
			Keywords: []string{"tchau", "adeus", "bye", "até logo", "falou"},
			Responses: []string{
				"Tchau! Foi um prazer conversar com você.",
				"Até logo! Volte sempre que precisar.",
				"Adeus! Tenha um ótimo dia!",
				"Tchau! Espero ter ajudado.",
			},
			Priority: 2,
			Active:   true,
		},
		{
			Category: "help",
			Keywords: []string{"ajuda", "help", "socorro", "como"},
			Responses: []string{
				"Posso ajudar com informações gerais, responder perguntas simples e manter uma conversa.",
				"Estou aqui para conversar e ajudar no que for possível!",
				"Pode me fazer perguntas ou apenas conversar comigo.",
			},
			Priority: 3,
			Active:   true,
		},
		{
			Category: "name",
			Keywords: []string{"nome", "quem é você", "quem você é", "seu nome"},
			Responses: []string{
				"Eu sou o ChatBot Assistant!",
				"Meu nome é ChatBot, prazer em conhecer você!",
				"Sou o seu assistente virtual ChatBot.",
			},
			Priority: 4,
			Active:   true,
		},
	}
}

// DefaultResponses is the fallback set used when no rule matched.
func DefaultResponses() []string {
	return []string{
		"Interessante! Pode me contar mais sobre isso?",
		"Entendo. O que mais você gostaria de saber?",
		"Hmm, essa é uma pergunta interessante.",
		"Posso não ter a resposta exata, mas estou aqui para conversar!",
		"Conte-me mais sobre o que você está pensando.",
		"Essa é uma perspectiva interessante!",
	}
}
