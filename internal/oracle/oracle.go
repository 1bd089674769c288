package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Oracle 抽象文本生成服务：输入提示词，输出自然语言文本。
// 生产实现为 OpenAI，测试中可替换为确定性桩。
type Oracle interface {
	Interpret(ctx context.Context, prompt string) (string, error)
}

// ExtractJSON 从模型输出中截取首个 '{' 到末个 '}' 之间的 JSON 片段，
// 容忍模型在 JSON 前后附带解释性文字。
func ExtractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("模型输出未找到有效JSON: %s", content)
	}

	return []byte(content[start : end+1]), nil
}
