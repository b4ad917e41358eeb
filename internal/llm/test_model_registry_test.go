package llm

import (
	"context"
	"errors"
	"testing"

	llmclient "prism/internal/llmClient"
	"prism/internal/tester"
)

func TestCatalog_UnknownModelIsConfigurationError(t *testing.T) {
	c := NewCatalog()
	_, err := c.Resolve(context.Background(), "nope")
	var cfgErr *ConfigurationError
	tester.True(t, errors.As(err, &cfgErr), "want ConfigurationError")
	tester.ErrIs(t, err, ErrUnknownModel)
	tester.Eq(t, cfgErr.Model, "nope")
}

func TestCatalog_FactoryErrorIsConfigurationError(t *testing.T) {
	c := NewCatalog()
	boom := errors.New("missing key")
	err := c.RegisterModel(llmclient.ModelRegistration{
		Provider: "p", Model: "m",
		Factory: func(context.Context) (llmclient.LLMClient, error) { return nil, boom },
	})
	tester.NoErr(t, err)
	_, err = c.Resolve(context.Background(), "m")
	var cfgErr *ConfigurationError
	tester.True(t, errors.As(err, &cfgErr), "want ConfigurationError")
	tester.ErrIs(t, err, boom)
}

func TestCatalog_ResolveCachesAndNormalizes(t *testing.T) {
	c := NewCatalog()
	builds := 0
	fake := NewFakeClient()
	_ = c.RegisterModel(llmclient.ModelRegistration{
		Provider: "fake", Model: "Fake-Model",
		Factory: func(context.Context) (llmclient.LLMClient, error) {
			builds++
			return fake, nil
		},
	})
	a, err := c.Resolve(context.Background(), "fake-model")
	tester.NoErr(t, err)
	b, err := c.Resolve(context.Background(), "  FAKE-MODEL ")
	tester.NoErr(t, err)
	tester.True(t, a == b, "expected cached client")
	tester.Eq(t, builds, 1)
	tester.True(t, c.Has("fake-model"), "Has should match")
}

func TestCatalog_DuplicateRegistration(t *testing.T) {
	c := NewCatalog()
	tester.Eq(t, RegisterFakeModel(c, NewFakeClient()), nil)
	tester.True(t, RegisterFakeModel(c, NewFakeClient()) != nil, "duplicate should fail")
}

func TestCatalog_NoTemperatureModelStripsTemperature(t *testing.T) {
	c := NewCatalog()
	spy := &spyingClient{}
	_ = c.RegisterModel(llmclient.ModelRegistration{
		Provider: "openai", Model: "o3-mini", NoTemperature: true,
		Factory: func(context.Context) (llmclient.LLMClient, error) { return spy, nil },
	})
	cli, err := c.Resolve(context.Background(), "o3-mini")
	tester.NoErr(t, err)
	temp := float32(0.2)
	_, _ = cli.GenerateText(context.Background(), llmclient.Request{Temperature: &temp})
	tester.True(t, spy.reqs[0].Temperature == nil, "o3-mini must not receive a temperature")
}

func TestCatalog_DefaultModelsListed(t *testing.T) {
	c := NewCatalog()
	tester.Eq(t, RegisterDefaultModels(c), nil)
	tester.True(t, c.Has("gpt-4o-mini"), "openai model")
	tester.True(t, c.Has("deepseek-r1-distill-llama-70b"), "groq model")
	tester.True(t, c.Has("gemini-2.5-flash"), "gemini model")
	models := c.Models()
	for i := 1; i < len(models); i++ {
		prev, cur := models[i-1], models[i]
		if prev.Provider > cur.Provider || (prev.Provider == cur.Provider && prev.Model > cur.Model) {
			t.Fatalf("models not sorted: %v before %v", prev, cur)
		}
	}
}

func TestFakeClient_RecordsPhaseAndStreams(t *testing.T) {
	fake := NewFakeClient()
	ctx := WithUnit(WithPhase(context.Background(), "evaluation"), 2)
	out, err := fake.GenerateText(ctx, llmclient.Request{})
	tester.NoErr(t, err)
	tester.Eq(t, out, "fake evaluation response #2")

	var got []string
	comp, err := fake.StreamText(WithPhase(context.Background(), "final"), llmclient.Request{}, func(d string) {
		got = append(got, d)
	})
	tester.NoErr(t, err)
	tester.Eq(t, comp.MessageID, "msg-fake")
	joined := ""
	for _, d := range got {
		joined += d
	}
	tester.Eq(t, joined, comp.Text)

	calls := fake.Calls()
	tester.Eq(t, len(calls), 2)
	tester.Eq(t, calls[0].Unit, 2)
	tester.True(t, calls[1].Stream, "second call streamed")
}
