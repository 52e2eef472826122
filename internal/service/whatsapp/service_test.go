package whatsapp

import (
	"context"
	"errors"
	"testing"

	"github.com/mamadbah2/prodtrack/internal/config"
	"github.com/mamadbah2/prodtrack/internal/domain/apperror"
	"github.com/mamadbah2/prodtrack/internal/domain/models"
	"github.com/mamadbah2/prodtrack/internal/service/commands"
	client "github.com/mamadbah2/prodtrack/pkg/clients/whatsapp"
)

type sentMessage struct {
	to, body string
}

type fakeClient struct {
	sent []sentMessage
}

func (f *fakeClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	f.sent = append(f.sent, sentMessage{to: req.To, body: req.Body})
	return &client.SendTextMessageResponse{}, nil
}

type fakeDispatcher struct {
	got   []models.Command
	reply string
	err   error
}

func (f *fakeDispatcher) HandleCommand(_ context.Context, cmd models.Command, _ string) (string, error) {
	f.got = append(f.got, cmd)
	return f.reply, f.err
}

type fakeTranslator struct {
	command string
}

func (f fakeTranslator) TranslateToCommand(context.Context, string) (string, error) {
	return f.command, nil
}

func textPayload(from string, bodies ...string) models.WebhookPayload {
	msgs := make([]models.InboundMessage, 0, len(bodies))
	for i, b := range bodies {
		msgs = append(msgs, models.InboundMessage{From: from, ID: string(rune('a' + i)), Type: "text", Text: &models.TextContent{Body: b}})
	}
	return models.WebhookPayload{Entry: []models.WebhookEntry{{Changes: []models.WebhookChange{{Value: models.WebhookValue{Messages: msgs}}}}}}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, &fakeClient{}, &fakeDispatcher{}, nil, nil)

	if got, err := svc.VerifyWebhookToken("subscribe", "secret", "42"); err != nil || got != "42" {
		t.Fatalf("valid token: %q, %v", got, err)
	}
	for _, tc := range [][2]string{{"", "secret"}, {"unsubscribe", "secret"}, {"subscribe", "wrong"}} {
		if _, err := svc.VerifyWebhookToken(tc[0], tc[1], "42"); err == nil {
			t.Errorf("mode=%q token=%q accepted", tc[0], tc[1])
		}
	}
}

func TestHandleWebhookDispatchesCommands(t *testing.T) {
	wa := &fakeClient{}
	disp := &fakeDispatcher{reply: "Declared 470 / 500"}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, disp, nil, nil)

	if err := svc.HandleWebhook(context.Background(), textPayload("2126", "/declare semaine47 lundi L1 REF-A 470")); err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if len(disp.got) != 1 || disp.got[0].Type != models.CommandDeclare {
		t.Fatalf("dispatched = %+v", disp.got)
	}
	if len(wa.sent) != 1 || wa.sent[0] != (sentMessage{to: "2126", body: "Declared 470 / 500"}) {
		t.Fatalf("sent = %+v", wa.sent)
	}
}

func TestHandleWebhookFreeText(t *testing.T) {
	ctx := context.Background()

	wa := &fakeClient{}
	disp := &fakeDispatcher{reply: "ok"}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, disp, fakeTranslator{command: "/stats semaine47 L1"}, nil)
	if err := svc.HandleWebhook(ctx, textPayload("2126", "how is L1 doing this week?")); err != nil {
		t.Fatal(err)
	}
	if len(disp.got) != 1 || disp.got[0].Type != models.CommandStats {
		t.Fatalf("translated command not dispatched: %+v", disp.got)
	}

	wa = &fakeClient{}
	disp = &fakeDispatcher{}
	svc = NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, disp, nil, nil)
	if err := svc.HandleWebhook(ctx, textPayload("2126", "hello")); err != nil {
		t.Fatal(err)
	}
	if len(disp.got) != 0 || len(wa.sent) != 1 || wa.sent[0].body != replyUsage {
		t.Fatalf("free text without translator: dispatched=%v sent=%v", disp.got, wa.sent)
	}
}

func TestHandleWebhookErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantReply string
		wantErr   bool
	}{
		{name: "bad arguments", err: commands.ErrInvalidArguments, wantReply: replyUsage},
		{name: "unsupported", err: commands.ErrUnsupportedCommand, wantReply: replyUnsupported},
		{name: "store failure", err: errors.New("connection reset"), wantReply: replyFailure, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			wa := &fakeClient{}
			svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{err: tc.err}, nil, nil)

			err := svc.HandleWebhook(context.Background(), textPayload("2126", "/declare x", "/stats y"))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if len(wa.sent) != 2 || wa.sent[0].body != tc.wantReply || wa.sent[1].body != tc.wantReply {
				t.Fatalf("sent = %+v", wa.sent)
			}
		})
	}
}

func TestSendOutbound(t *testing.T) {
	wa := &fakeClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, wa, &fakeDispatcher{}, nil, nil)

	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "2126", Message: "line L1 stopped"}); err != nil {
		t.Fatal(err)
	}
	if len(wa.sent) != 1 || wa.sent[0].body != "line L1 stopped" {
		t.Fatalf("sent = %+v", wa.sent)
	}

	err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "+212 6", Message: ""})
	if apperror.KindOf(err) != apperror.KindValidation || len(apperror.FieldsOf(err)) != 2 {
		t.Fatalf("err = %v, fields %+v", err, apperror.FieldsOf(err))
	}
	if len(wa.sent) != 1 {
		t.Fatal("invalid request reached the client")
	}
}
