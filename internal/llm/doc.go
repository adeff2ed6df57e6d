// Package llm defines a provider-neutral chat model interface with tool
// calling, plus adapters for OpenAI-compatible endpoints (OpenAI, Gemini)
// and the Anthropic Messages API.
//
// Conversations are expressed as Messages made of Content blocks. Tool
// calls requested by the model come back as ContentToolUse blocks and tool
// outputs are sent back as ContentToolResult blocks in a user message.
package llm
