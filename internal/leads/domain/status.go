// Package domain provides core business rules for the leads bounded context.
package domain

// Status is a lead's position in the commercial funnel.
type Status string

const (
	StatusNovoCadastro         Status = "novo-cadastro"
	StatusTentativaContato     Status = "tentativa-contato"
	StatusContatoEfetivo       Status = "contato-efetivo"
	StatusAtendimentoAgendado  Status = "atendimento-agendado"
	StatusAtendimentoRealizado Status = "atendimento-realizado"
	StatusNegociacao           Status = "negociacao"
	StatusMatriculado          Status = "matriculado"
	StatusPerdido              Status = "perdido"
)

// statusRank orders funnel stages. Contact activities never move a lead
// backwards: the derived status is the max of the current rank and the
// activity's target rank.
var statusRank = map[Status]int{
	StatusNovoCadastro:         0,
	StatusTentativaContato:     1,
	StatusContatoEfetivo:       2,
	StatusAtendimentoAgendado:  3,
	StatusAtendimentoRealizado: 4,
	StatusNegociacao:           5,
	StatusMatriculado:          6,
	StatusPerdido:              6,
}

// terminalStatuses admit no further activities in this engine. A separate
// pedagogical workflow continues after matriculado.
var terminalStatuses = map[Status]bool{
	StatusMatriculado: true,
	StatusPerdido:     true,
}

// IsTerminal returns true if no further activities may be recorded.
func IsTerminal(status Status) bool {
	return terminalStatuses[status]
}

// IsKnownStatus reports whether the status is part of the funnel.
func IsKnownStatus(status Status) bool {
	_, ok := statusRank[status]
	return ok
}

// Rank returns the funnel position of a status, -1 for unknown statuses.
func Rank(status Status) int {
	rank, ok := statusRank[status]
	if !ok {
		return -1
	}
	return rank
}

// maxStatus returns whichever of current/target sits further down the funnel.
func maxStatus(current, target Status) Status {
	if Rank(target) > Rank(current) {
		return target
	}
	return current
}
