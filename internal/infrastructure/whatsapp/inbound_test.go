package whatsapp

import "testing"

func TestParseInboundText(t *testing.T) {
	body := []byte(`{
		"entry": [{
			"changes": [{
				"value": {
					"contacts": [{"profile": {"name": "Ana"}}],
					"messages": [{
						"id": "wamid.abc123",
						"from": "5511999990000",
						"type": "text",
						"text": {"body": "cadê meu pedido?"}
					}]
				}
			}]
		}]
	}`)

	msg, ok, err := ParseInbound(body)
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if !ok {
		t.Fatal("expected a message")
	}
	if msg.MessageID != "wamid.abc123" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if msg.From != "5511999990000" {
		t.Errorf("From = %q", msg.From)
	}
	if msg.ProfileName != "Ana" {
		t.Errorf("ProfileName = %q", msg.ProfileName)
	}
	if msg.Text != "cadê meu pedido?" {
		t.Errorf("Text = %q", msg.Text)
	}
}

func TestParseInboundButtonAndInteractive(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"button reply",
			`{"entry":[{"changes":[{"value":{"messages":[{"id":"m1","from":"551","type":"button","button":{"text":"Rastrear pedido"}}]}}]}]}`,
			"Rastrear pedido",
		},
		{
			"interactive button reply",
			`{"entry":[{"changes":[{"value":{"messages":[{"id":"m2","from":"551","type":"interactive","interactive":{"button_reply":{"title":"Sim"}}}]}}]}]}`,
			"Sim",
		},
		{
			"interactive list reply",
			`{"entry":[{"changes":[{"value":{"messages":[{"id":"m3","from":"551","type":"interactive","interactive":{"list_reply":{"title":"Pedido recente"}}}]}}]}]}`,
			"Pedido recente",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok, err := ParseInbound([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseInbound: %v", err)
			}
			if !ok {
				t.Fatal("expected a message")
			}
			if msg.Text != tt.want {
				t.Errorf("Text = %q, want %q", msg.Text, tt.want)
			}
		})
	}
}

func TestParseInboundIgnored(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			"status only delivery",
			`{"entry":[{"changes":[{"value":{"statuses":[{"id":"m1","status":"delivered"}]}}]}]}`,
		},
		{
			"unsupported media type",
			`{"entry":[{"changes":[{"value":{"messages":[{"id":"m1","from":"551","type":"image"}]}}]}]}`,
		},
		{"empty entry", `{"entry":[]}`},
		{"no changes", `{"entry":[{"changes":[]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok, err := ParseInbound([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseInbound: %v", err)
			}
			if ok {
				t.Error("expected no message")
			}
		})
	}
}

func TestParseInboundMalformed(t *testing.T) {
	if _, _, err := ParseInbound([]byte("{not json")); err == nil {
		t.Error("malformed body should error")
	}
}
