package domain

import "testing"

func TestNextStatusStateTable(t *testing.T) {
	tests := []struct {
		name     string
		current  Status
		activity ActivityType
		result   AttendanceResult
		want     Status
		wantOK   bool
	}{
		{"attempt from new", StatusNovoCadastro, ActivityContactAttempt, "", StatusTentativaContato, true},
		{"repeat attempt", StatusTentativaContato, ActivityContactAttempt, "", StatusTentativaContato, true},
		{"effective contact", StatusTentativaContato, ActivityEffectiveContact, "", StatusContatoEfetivo, true},
		{"skip straight to scheduling", StatusNovoCadastro, ActivityScheduling, "", StatusAtendimentoAgendado, true},
		{"attempt never downgrades", StatusContatoEfetivo, ActivityContactAttempt, "", StatusContatoEfetivo, true},
		{"reschedule pending visit", StatusAtendimentoAgendado, ActivityScheduling, "", StatusAtendimentoAgendado, true},
		{"attendance enrolls", StatusAtendimentoAgendado, ActivityAttendance, ResultMatriculado, StatusMatriculado, true},
		{"attendance to negotiation", StatusAtendimentoAgendado, ActivityAttendance, ResultNegociacao, StatusNegociacao, true},
		{"attendance lost", StatusAtendimentoAgendado, ActivityAttendance, ResultPerdido, StatusPerdido, true},
		{"enrollment after visit", StatusAtendimentoRealizado, ActivityEnrollment, "", StatusMatriculado, true},
		{"negotiation loops to new visit", StatusNegociacao, ActivityScheduling, "", StatusAtendimentoAgendado, true},
		{"negotiation direct enrollment", StatusNegociacao, ActivityEnrollment, "", StatusMatriculado, true},

		{"attendance without booking", StatusNovoCadastro, ActivityAttendance, ResultMatriculado, StatusNovoCadastro, false},
		{"attendance with unknown result", StatusAtendimentoAgendado, ActivityAttendance, "desistiu", StatusAtendimentoAgendado, false},
		{"enrollment before visit", StatusContatoEfetivo, ActivityEnrollment, "", StatusContatoEfetivo, false},
		{"terminal matriculado rejects all", StatusMatriculado, ActivityContactAttempt, "", StatusMatriculado, false},
		{"terminal perdido rejects all", StatusPerdido, ActivityScheduling, "", StatusPerdido, false},
		{"unknown status", Status("arquivado"), ActivityContactAttempt, "", Status("arquivado"), false},
	}

	for _, tc := range tests {
		got, ok := NextStatus(tc.current, tc.activity, tc.result)
		if ok != tc.wantOK {
			t.Errorf("%s: NextStatus(%q, %q, %q) ok = %v, want %v",
				tc.name, tc.current, tc.activity, tc.result, ok, tc.wantOK)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: NextStatus(%q, %q, %q) = %q, want %q",
				tc.name, tc.current, tc.activity, tc.result, got, tc.want)
		}
	}
}

func TestRejectedTransitionLeavesStatusUnchanged(t *testing.T) {
	for status := range allowedActivities {
		for _, activity := range []ActivityType{
			ActivityContactAttempt, ActivityEffectiveContact, ActivityScheduling,
			ActivityAttendance, ActivityEnrollment,
		} {
			got, ok := NextStatus(status, activity, "")
			if !ok && got != status {
				t.Errorf("rejected NextStatus(%q, %q) mutated status to %q", status, activity, got)
			}
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusMatriculado) || !IsTerminal(StatusPerdido) {
		t.Error("matriculado and perdido must be terminal")
	}
	if IsTerminal(StatusNegociacao) {
		t.Error("negociacao must allow re-engagement")
	}
}

func TestRankUnknownStatus(t *testing.T) {
	if Rank(Status("whatever")) != -1 {
		t.Error("unknown status should rank -1")
	}
}
