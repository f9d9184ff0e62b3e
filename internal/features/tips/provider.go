// Package tips — мотивирующие советы к стрику.
// Совет чисто косметический: он никак не влияет на экономику.
// provider.go — источники советов.
package tips

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fastjson"

	"serotonyl.ru/rewards-bot/internal/common"
)

// ErrEmptyTip — генератор ответил пустым текстом.
var ErrEmptyTip = errors.New("пустой совет")

// Provider — внешний генератор совета для дня стрика.
type Provider interface {
	Tip(ctx context.Context, day int) (string, error)
}

// StaticProvider — встроенные советы: считает дни до большого приза.
type StaticProvider struct {
	lastDay int
}

// NewStaticProvider создаёт встроенный источник для стрика из lastDay дней.
func NewStaticProvider(lastDay int) *StaticProvider {
	return &StaticProvider{lastDay: lastDay}
}

// Tip возвращает совет для дня day.
func (p *StaticProvider) Tip(_ context.Context, day int) (string, error) {
	left := p.lastDay - day
	switch {
	case left <= 0:
		return "Сегодня день большого приза — не пропусти!", nil
	case left == 1:
		return "Остался всего 1 день до большого приза!", nil
	default:
		return fmt.Sprintf("Ещё %d %s до большого приза!", left, common.PluralizeDays(left)), nil
	}
}

// GenerativeProvider — генератор текста по HTTP (формат generateContent).
type GenerativeProvider struct {
	endpoint string
	apiKey   string
	client   *fasthttp.Client
}

// NewGenerativeProvider создаёт клиента генератора.
func NewGenerativeProvider(endpoint, apiKey string) *GenerativeProvider {
	return &GenerativeProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &fasthttp.Client{
			Name:                "rewards-bot",
			MaxConnsPerHost:     16,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Prompt — запрос к генератору для дня day.
func Prompt(day int) string {
	return fmt.Sprintf("Пользователь на %d-м дне 7-дневного стрика. "+
		"Напиши одну короткую мотивирующую фразу, чтобы он продолжал.", day)
}

// Tip запрашивает совет у генератора. Дедлайн берётся из ctx.
func (p *GenerativeProvider) Tip(ctx context.Context, day int) (string, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(p.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if p.apiKey != "" {
		req.Header.Set("x-goog-api-key", p.apiKey)
	}
	req.SetBody(requestBody(Prompt(day)))

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = p.client.DoDeadline(req, resp, deadline)
	} else {
		err = p.client.Do(req, resp)
	}
	if err != nil {
		return "", fmt.Errorf("tips request: %w", err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return "", fmt.Errorf("tips request: status %d", code)
	}

	return parseTip(resp.Body())
}

// requestBody строит {"contents":[{"parts":[{"text": prompt}]}]}.
func requestBody(prompt string) []byte {
	var a fastjson.Arena
	part := a.NewObject()
	part.Set("text", a.NewString(prompt))
	parts := a.NewArray()
	parts.SetArrayItem(0, part)

	content := a.NewObject()
	content.Set("parts", parts)
	contents := a.NewArray()
	contents.SetArrayItem(0, content)

	root := a.NewObject()
	root.Set("contents", contents)
	return root.MarshalTo(nil)
}

// parseTip достаёт текст из candidates[0].content.parts[0].text
// или из плоского {"text": ...}.
func parseTip(body []byte) (string, error) {
	v, err := fastjson.ParseBytes(body)
	if err != nil {
		return "", fmt.Errorf("tips response: %w", err)
	}

	text := v.GetStringBytes("candidates", "0", "content", "parts", "0", "text")
	if len(text) == 0 {
		text = v.GetStringBytes("text")
	}
	tip := strings.TrimSpace(string(text))
	if tip == "" {
		return "", ErrEmptyTip
	}
	return tip, nil
}
