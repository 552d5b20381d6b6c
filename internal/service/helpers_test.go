package service

import (
	"context"
	"io"
	"sync"
	"time"

	"ai-companion-chat/backend/ai"
	"ai-companion-chat/backend/internal/models"
	"ai-companion-chat/backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

// stubClient is a canned ai.Client. Safe for calls from scheduled-task
// goroutines.
type stubClient struct {
	reply      string
	visionText string
	imageURL   string
	err        error

	mu           sync.Mutex
	textCalls    int
	requests     [][]ai.Message
	temperatures []float64
}

func (c *stubClient) GenerateText(_ context.Context, messages []ai.Message, temperature float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.textCalls++
	c.requests = append(c.requests, messages)
	c.temperatures = append(c.temperatures, temperature)
	return c.reply, c.err
}

func (c *stubClient) GenerateVision(context.Context, string, []byte, string) (string, error) {
	return c.visionText, c.err
}

func (c *stubClient) GenerateImage(context.Context, string) (string, error) {
	return c.imageURL, c.err
}

func stubFactory(client ai.Client) ClientFactory {
	return func(ai.ProviderConfig) (ai.Client, error) {
		return client, nil
	}
}

// recordingHub collects broadcast messages.
type recordingHub struct {
	messages []models.Message
}

func (h *recordingHub) BroadcastMessage(msg models.Message) {
	h.messages = append(h.messages, msg)
}

// immediateDelayer runs every scheduled task synchronously and records the
// requested delays.
type immediateDelayer struct {
	delays []time.Duration
}

func (d *immediateDelayer) After(delay time.Duration, task func()) {
	d.delays = append(d.delays, delay)
	task()
}

// asyncDelayer runs every scheduled task on its own goroutine, mimicking
// the real scheduler's timer goroutines.
type asyncDelayer struct {
	wg sync.WaitGroup
}

func (d *asyncDelayer) After(_ time.Duration, task func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		task()
	}()
}

func (d *asyncDelayer) wait() {
	d.wg.Wait()
}

// droppingDelayer records delays without ever running the tasks.
type droppingDelayer struct {
	delays []time.Duration
}

func (d *droppingDelayer) After(delay time.Duration, _ func()) {
	d.delays = append(d.delays, delay)
}

func configuredSettings() map[string]string {
	return map[string]string{
		models.SettingChatAPIURL: "https://llm.example.com/v1",
		models.SettingChatAPIKey: "key",
		models.SettingChatModel:  "test-model",
		models.SettingUserName:   "阿杰",
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
