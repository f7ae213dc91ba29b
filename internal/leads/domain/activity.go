package domain

// ActivityType classifies a recorded lead interaction.
type ActivityType string

const (
	ActivityContactAttempt   ActivityType = "tentativa-contato"
	ActivityEffectiveContact ActivityType = "contato-efetivo"
	ActivityScheduling       ActivityType = "agendamento"
	ActivityAttendance       ActivityType = "atendimento"
	ActivityEnrollment       ActivityType = "matricula"
)

// ContactChannel is the medium used for a contact activity.
type ContactChannel string

const (
	ChannelPhone        ContactChannel = "phone"
	ChannelWhatsApp     ContactChannel = "whatsapp"
	ChannelWhatsAppCall ContactChannel = "whatsapp-call"
	ChannelPresencial   ContactChannel = "presencial"
)

// AttendanceResult is the outcome recorded on an attendance activity.
type AttendanceResult string

const (
	ResultMatriculado AttendanceResult = "matriculado"
	ResultNegociacao  AttendanceResult = "negociacao"
	ResultPerdido     AttendanceResult = "perdido"
)

var knownActivityTypes = map[ActivityType]struct{}{
	ActivityContactAttempt:   {},
	ActivityEffectiveContact: {},
	ActivityScheduling:       {},
	ActivityAttendance:       {},
	ActivityEnrollment:       {},
}

var knownChannels = map[ContactChannel]struct{}{
	ChannelPhone:        {},
	ChannelWhatsApp:     {},
	ChannelWhatsAppCall: {},
	ChannelPresencial:   {},
}

var knownResults = map[AttendanceResult]struct{}{
	ResultMatriculado: {},
	ResultNegociacao:  {},
	ResultPerdido:     {},
}

func IsKnownActivityType(t ActivityType) bool {
	_, ok := knownActivityTypes[t]
	return ok
}

func IsKnownChannel(ch ContactChannel) bool {
	_, ok := knownChannels[ch]
	return ok
}

func IsKnownResult(r AttendanceResult) bool {
	_, ok := knownResults[r]
	return ok
}
