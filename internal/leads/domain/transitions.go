package domain

// allowedActivities is the state table: which activity types may be
// recorded against a lead in each status. Anything not listed here is
// rejected before any write.
var allowedActivities = map[Status]map[ActivityType]bool{
	StatusNovoCadastro: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true,
	},
	StatusTentativaContato: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true,
	},
	StatusContatoEfetivo: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true,
	},
	StatusAtendimentoAgendado: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true, // reschedule replaces the pending booking
		ActivityAttendance:       true,
	},
	StatusAtendimentoRealizado: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true,
		ActivityEnrollment:       true,
	},
	// negociacao may loop back into re-engagement: further contacts,
	// a new visit, a new attendance outcome, or a direct enrollment.
	StatusNegociacao: {
		ActivityContactAttempt:   true,
		ActivityEffectiveContact: true,
		ActivityScheduling:       true,
		ActivityAttendance:       true,
		ActivityEnrollment:       true,
	},
	StatusMatriculado: {},
	StatusPerdido:     {},
}

// CanRecord reports whether the state table admits the activity type for
// a lead currently in the given status.
func CanRecord(current Status, activity ActivityType) bool {
	allowed, ok := allowedActivities[current]
	if !ok {
		return false
	}
	return allowed[activity]
}

// NextStatus derives the lead status after recording an activity.
// The boolean result is false when the state table rejects the
// transition; the lead must then remain unchanged.
func NextStatus(current Status, activity ActivityType, result AttendanceResult) (Status, bool) {
	if !CanRecord(current, activity) {
		return current, false
	}

	switch activity {
	case ActivityContactAttempt:
		return maxStatus(current, StatusTentativaContato), true
	case ActivityEffectiveContact:
		return maxStatus(current, StatusContatoEfetivo), true
	case ActivityScheduling:
		// A new booking always puts the lead back in the scheduled stage,
		// including re-engagement visits after negociacao.
		return StatusAtendimentoAgendado, true
	case ActivityAttendance:
		switch result {
		case ResultMatriculado:
			return StatusMatriculado, true
		case ResultNegociacao:
			return StatusNegociacao, true
		case ResultPerdido:
			return StatusPerdido, true
		}
		return current, false
	case ActivityEnrollment:
		return StatusMatriculado, true
	}
	return current, false
}
