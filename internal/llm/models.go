package llm

// Deployment is one LLM backend the balancer can hand out.
type Deployment struct {
	APIBase    string
	APIKey     string
	APIVersion string
	Model      string
}

type balancerRequest struct {
	TokenSize int    `json:"tokenSize"`
	Env       string `json:"env"`
}

type balancerResult struct {
	APIBase    string `json:"apiBase"`
	APIKey     string `json:"apiKey"`
	APIVersion string `json:"apiVersion"`
	APIModel   string `json:"apiModel"`
}

type balancerResponse struct {
	Code   string         `json:"code"`
	Result balancerResult `json:"result"`
}

// CompletionRequest carries one chat-completion invocation. Documents
// holds the retrieved context block; it is the only part the token
// budgeter may truncate.
type CompletionRequest struct {
	System    string
	Human     string
	Question  string
	Documents string
	Variables map[string]string
}

type CompletionResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type embeddingRequest struct {
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}
