package whatsapp

import "encoding/json"

// Webhook payload shapes for the Cloud API. Only the fields the bridge
// reads are declared; everything else rides along in the raw body.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value changeValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type changeValue struct {
	Contacts []struct {
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []inboundMessage  `json:"messages"`
	Statuses []json.RawMessage `json:"statuses"`
}

type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Button *struct {
		Text string `json:"text"`
	} `json:"button"`
	Interactive *struct {
		ButtonReply *struct {
			Title string `json:"title"`
		} `json:"button_reply"`
		ListReply *struct {
			Title string `json:"title"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// InboundMessage is one user message lifted out of a webhook delivery.
type InboundMessage struct {
	MessageID   string
	From        string
	ProfileName string
	Text        string
}

// ParseInbound decodes a webhook body and extracts the user message, if
// any. Status-only deliveries (sent/delivered/read receipts) and message
// types without usable text yield ok=false.
func ParseInbound(body []byte) (InboundMessage, bool, error) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return InboundMessage{}, false, err
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return InboundMessage{}, false, nil
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return InboundMessage{}, false, nil
	}
	msg := value.Messages[0]

	text := extractText(msg)
	if text == "" {
		return InboundMessage{}, false, nil
	}

	out := InboundMessage{
		MessageID: msg.ID,
		From:      msg.From,
		Text:      text,
	}
	if len(value.Contacts) > 0 {
		out.ProfileName = value.Contacts[0].Profile.Name
	}
	return out, true, nil
}

// extractText pulls the user-visible text out of the message variants that
// carry one.
func extractText(msg inboundMessage) string {
	switch msg.Type {
	case "text":
		if msg.Text != nil {
			return msg.Text.Body
		}
	case "button":
		if msg.Button != nil {
			return msg.Button.Text
		}
	case "interactive":
		if msg.Interactive != nil {
			if msg.Interactive.ButtonReply != nil {
				return msg.Interactive.ButtonReply.Title
			}
			if msg.Interactive.ListReply != nil {
				return msg.Interactive.ListReply.Title
			}
		}
	}
	return ""
}
