package recon

// DispatchStatus classifies message dispatch/tracking rows.
// Numeric codes 0-4 are the dispatch webhook's own status enum.
var DispatchStatus = NewTaxonomy(TaxonomyConfig{
	Name:    "dispatch",
	Numeric: []Code{Pending, Sent, Error, Working, NoTemplate},
	Labels: map[Code]string{
		Pending:    "Pendente",
		Sent:       "Enviado",
		Error:      "Erro",
		Working:    "Em andamento",
		NoTemplate: "Sem template",
		Unknown:    "Desconhecido",
	},
	Synonyms: map[Code][]string{
		Pending: {"pendente", "pending", "agendado", "agendada", "scheduled", "aguardando",
			"waiting", "queued", "na fila", "em fila", "novo", "new"},
		Sent: {"enviado", "enviada", "sent", "sucesso", "success", "ok", "entregue",
			"delivered", "lido", "lida", "read", "concluido", "done", "completed"},
		Error: {"erro", "error", "falha", "failed", "fail", "falhou", "nao enviado",
			"not sent", "rejeitado", "rejected", "cancelado", "undelivered"},
		Working: {"processando", "processing", "enviando", "sending", "em andamento",
			"em processamento", "in progress", "working", "running"},
		NoTemplate: {"sem template", "no template", "template ausente", "missing template"},
	},
	Stems: []Stem{
		{"nao envi", Error},
		{"not sent", Error},
		{"undeliver", Error},
		{"erro", Error},
		{"fail", Error},
		{"falh", Error},
		{"rejeit", Error},
		{"sem template", NoTemplate},
		{"no template", NoTemplate},
		{"enviando", Working},
		{"process", Working},
		{"andamento", Working},
		{"pend", Pending},
		{"agend", Pending},
		{"aguard", Pending},
		{"fila", Pending},
		{"queue", Pending},
		{"envi", Sent},
		{"sent", Sent},
		{"sucesso", Sent},
		{"success", Sent},
		{"deliver", Sent},
		{"entreg", Sent},
	},
})

// PhoneStatus classifies WhatsApp phone/channel connection states.
var PhoneStatus = NewTaxonomy(TaxonomyConfig{
	Name:    "phone",
	Numeric: []Code{Pending, Connected, Disconnected, Connecting, Banned},
	Labels: map[Code]string{
		Connected:    "Conectado",
		Disconnected: "Desconectado",
		Connecting:   "Conectando",
		Banned:       "Banido",
		Pending:      "Pendente",
		Unknown:      "Desconhecido",
	},
	Synonyms: map[Code][]string{
		Connected:    {"connected", "conectado", "conectada", "online", "active", "ativo", "live"},
		Disconnected: {"disconnected", "desconectado", "desconectada", "offline", "inativo", "inactive", "deleted", "expired"},
		Connecting:   {"connecting", "conectando", "reconnecting", "reconectando", "qrcode", "qr code"},
		Banned:       {"banned", "banido", "bloqueado", "blocked", "flagged", "restricted", "suspended", "suspenso"},
		Pending:      {"pending", "pendente", "aguardando", "unverified"},
	},
	Stems: []Stem{
		{"desconect", Disconnected},
		{"disconnect", Disconnected},
		{"offline", Disconnected},
		{"reconect", Connecting},
		{"reconnect", Connecting},
		{"conectando", Connecting},
		{"connecting", Connecting},
		{"banned", Banned},
		{"banid", Banned},
		{"bloq", Banned},
		{"block", Banned},
		{"restrict", Banned},
		{"pend", Pending},
		{"aguard", Pending},
		{"conect", Connected},
		{"connect", Connected},
		{"online", Connected},
	},
})

// BMVerification classifies Business Manager verification states.
var BMVerification = NewTaxonomy(TaxonomyConfig{
	Name: "bm_verification",
	Labels: map[Code]string{
		Verified:    "Verificada",
		Pending:     "Em análise",
		NotVerified: "Não verificada",
		Unknown:     "Desconhecido",
	},
	Synonyms: map[Code][]string{
		Verified:    {"verified", "verificado", "verificada", "approved", "aprovado", "aprovada"},
		Pending:     {"pending", "pendente", "in review", "em analise", "pending submission"},
		NotVerified: {"not verified", "unverified", "nao verificado", "rejected", "rejeitado", "failed", "revoked", "ineligible"},
	},
	Stems: []Stem{
		{"not verif", NotVerified},
		{"nao verif", NotVerified},
		{"unverif", NotVerified},
		{"reject", NotVerified},
		{"rejeit", NotVerified},
		{"pend", Pending},
		{"review", Pending},
		{"analise", Pending},
		{"verif", Verified},
		{"aprov", Verified},
		{"approv", Verified},
	},
})

// Quality classifies phone quality ratings (Graph API GREEN/YELLOW/RED and
// the dashboards' own alta/média/baixa).
var Quality = NewTaxonomy(TaxonomyConfig{
	Name: "quality",
	Labels: map[Code]string{
		High:    "Alta",
		Medium:  "Média",
		Low:     "Baixa",
		Unknown: "Desconhecida",
	},
	Synonyms: map[Code][]string{
		High:    {"high", "alta", "alto", "green", "verde"},
		Medium:  {"medium", "media", "medio", "yellow", "amarelo", "amarela"},
		Low:     {"low", "baixa", "baixo", "red", "vermelho", "vermelha"},
		Unknown: {"na", "n/a", "desconhecido"},
	},
	Stems: []Stem{
		{"green", High},
		{"verde", High},
		{"yellow", Medium},
		{"amarel", Medium},
		{"vermelh", Low},
		{"high", High},
		{"medium", Medium},
		{"low", Low},
		{"baix", Low},
		{"medi", Medium},
		{"alt", High},
	},
})
