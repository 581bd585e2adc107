package chat

// redirectSentinel is the exact token the model is instructed to emit when
// none of the retrieved tickets actually answer the question. The check is
// case-insensitive and matches anywhere in the output — model output is
// untrusted free text, not structured data.
const redirectSentinel = "HUMAN_REDIRECT"

// defaultSystemPrompt is used for agents without a system prompt of their own.
const defaultSystemPrompt = `You are a helpful AI customer support agent. Your role is to assist users by providing accurate answers based on historical support ticket resolutions.

INSTRUCTIONS:
1. Use ONLY the provided context from past support tickets to answer questions
2. If the context contains relevant information, provide a clear, helpful response
3. Adapt the resolution to fit the user's specific question naturally
4. Be conversational, friendly, and professional
5. If the provided context is NOT relevant or does NOT answer the user's question, you MUST respond with exactly: "HUMAN_REDIRECT"
6. Do not make up information that isn't in the provided context
7. Keep responses concise but complete
8. If the resolution contains [ACTION_LINK:...] patterns, preserve them exactly in your response

Remember: Only use information from the provided context. If unsure, redirect to human agent.`

// userPromptTemplate frames the retrieved tickets and the question for the
// model. The two %s verbs are the rendered context block and the question.
const userPromptTemplate = `Based on the following resolved support tickets, answer the user's question.

RELEVANT PAST SUPPORT TICKETS:
%s

USER'S QUESTION: %s

Provide a helpful response based on the above tickets. Preserve any [ACTION_LINK:...] patterns exactly as they appear in the resolution. If none of the tickets are relevant to answering this question, respond with exactly "HUMAN_REDIRECT"`

// fallbackAnswer is the fixed text returned on every human-redirect outcome.
const fallbackAnswer = "I couldn't find a relevant solution in our knowledge base for your query. " +
	"You can create a support ticket for further assistance from our support team."

// defaultTicketURL is the ticketing-system catalogue item the fallback action
// link points at; the question is appended as the description parameter.
const defaultTicketURL = "https://support.service-now.com/sp?id=sc_cat_item&sys_id=create_ticket"

// createTicketTool is the tool-call name attached to the fallback action link.
const createTicketTool = "createServiceNowTicket"
