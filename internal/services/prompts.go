package services

// LLM Prompt Constants for consistent and optimized AI interactions

const (
	// SUMMARY_PROMPT asks for a structured diagnostic of one log entry.
	SUMMARY_PROMPT = `You are an expert log analysis assistant helping developers debug backend applications.

CRITICAL INSTRUCTIONS:
- Return ONLY valid JSON in the exact format specified below
- Do not include any explanatory text, introductions, or markdown formatting
- Do not simply repeat the input, rephrase and clarify it
- If the message is vague, use the remaining fields for insight

LOG FORMAT: %s

LOG ENTRY:
%s

REQUIRED JSON FORMAT:
{
  "summary": "Root cause of the issue and why it happens, in 1-3 developer-friendly lines",
  "fix_suggestion": "The most likely fix or next debugging step",
  "code_fix": "A short code or configuration snippet that applies the fix, or an empty string",
  "code_location": "File, class, function or config key most likely involved, or an empty string",
  "resources": ["URL of official documentation or a well known reference"]
}

Respond with ONLY the JSON object.`

	// FORMAT_CLASSIFICATION_PROMPT identifies the producing system of a sample.
	FORMAT_CLASSIFICATION_PROMPT = `You are a log format classification assistant.
Given the content of a log file, determine:

1. What system it belongs to (e.g., Apache, NGINX, Laravel, MySQL, Asterisk, Python, NodeJS, etc.).
2. A regex pattern with named groups that extracts individual log entries from the content.
3. A short explanation for your choice.

Content:
%s

Respond strictly in JSON format:
{
  "log_type": "...",
  "regex_pattern": "...",
  "explanation": "..."
}`

	// PATTERN_DISCOVERY_PROMPT asks for one line-anchored extraction regex.
	PATTERN_DISCOVERY_PROMPT = `You are an expert in log analysis and parsing.

Your task is to:
1. Analyze the provided log chunk.
2. Detect the log type (such as Laravel, Apache, NGINX, Asterisk, MySQL, Docker, etc.).
3. Generate a single regex pattern that matches all or most lines in the chunk, starting at the first character of a line.
4. Use named groups with the (?P<name>...) syntax for fields like timestamp, level, service, message and exception.

Constraints:
- The pattern must be valid RE2 syntax: no lookbehind, no backreferences.
- Return only the regex pattern on a single line, without explanation or markdown.

Input logs:
%s`
)
