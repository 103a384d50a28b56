package email

import (
	"context"
	"errors"
	"testing"
)

func TestNoopSender_SendBatch(t *testing.T) {
	s := NewNoopSender()
	receipts, err := s.SendBatch(context.Background(), []Message{
		{To: []string{"a@parroquia.org"}, Subject: "Resumen"},
		{To: []string{"b@parroquia.org"}, Subject: "Resumen"},
	})
	if err != nil {
		t.Fatalf("SendBatch: %v", err)
	}
	if len(receipts) != 2 || receipts[0].MessageID == receipts[1].MessageID {
		t.Errorf("receipts = %+v", receipts)
	}
	if got := s.Sent(); len(got) != 2 || got[1].To[0] != "b@parroquia.org" {
		t.Errorf("Sent = %+v", got)
	}
}

func TestMessage_Validate(t *testing.T) {
	if err := (Message{Subject: "x"}).Validate(); !errors.Is(err, ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
	if err := (Message{To: []string{"a@b.c"}}).Validate(); err == nil {
		t.Error("missing subject accepted")
	}
	if _, err := NewNoopSender().Send(context.Background(), Message{}); err == nil {
		t.Error("Send accepted an invalid message")
	}
}
