// Package sentiment provides the sentiment classification collaborator.
// It supports Azure Text Analytics, OpenAI-compatible chat models, Anthropic
// models and the Google Cloud Natural Language API, wrapped with retry logic,
// rate limiting and response caching.
package sentiment
