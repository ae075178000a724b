package ai

// ExtractPrompt is the system prompt for entity/relationship extraction
// from a text chunk. Expects one fmt argument: the comma-separated list of
// allowed entity types.
const ExtractPrompt = `You are an expert knowledge-graph builder. From the provided text, which combines visual descriptions and audio transcripts of consecutive video clips, identify all salient entities and the relationships between them.

Rules:
- Entity types must be one of: %s
- Entity names are concise noun phrases, written in uppercase.
- Entity descriptions are comprehensive and self-contained; never refer to "the text" or "the clip".
- Only report relationships between entities you identified.
- Relationship types are short uppercase verb phrases such as WORKS_AT or LOCATED_IN.
- Relationship descriptions explain why the two entities are related.

Respond with the requested JSON structure and nothing else.`

// SynthesizeDescriptionPrompt merges two conflicting descriptions of the
// same entity into one. Expects three fmt arguments: entity name, existing
// description, new description.
const SynthesizeDescriptionPrompt = `Two descriptions of the entity "%s" were produced from different parts of a video corpus.

Existing description:
%s

New description:
%s

Write a single coherent description that preserves every piece of information from both. Do not add information that is not present in either description. Respond with the merged description only.`

// ReformulatePrompt turns a user question into a declarative statement
// suitable for embedding against entity descriptions. Expects one fmt
// argument: the query.
const ReformulatePrompt = `Rewrite the following question as a single declarative statement that asserts the information the question is asking for. Keep every named entity. Respond with the statement only.

Question: %s`

// SceneDescriptionPrompt derives a visual scene description from a query
// for matching against clip embeddings. Expects one fmt argument: the query.
const SceneDescriptionPrompt = `Describe, in one or two sentences, the visual scene a video clip would show if it answered the following question. Focus on concrete visible objects, actions and settings. Respond with the description only.

Question: %s`

// RelevancePrompt asks for a strict boolean judgment on whether a clip is
// essential to answering the query. Expects three fmt arguments: query,
// caption, transcript.
const RelevancePrompt = `You judge whether a video clip is essential for answering a question.

Question: %s

Clip visual description:
%s

Clip audio transcript:
%s

Is this clip essential to answer the question?`

// KeywordsPrompt extracts focus keywords from a query. Expects one fmt
// argument: the query.
const KeywordsPrompt = `Extract the 2 to 5 keywords from the following question that a vision model should focus on when re-examining video footage. Prefer concrete objects, names and actions over abstract terms.

Question: %s`

// RecaptionPrompt is the system prompt for query-focused re-captioning of
// clip frames. Expects two fmt arguments: comma-separated keywords and the
// clip's audio transcript.
const RecaptionPrompt = `You are watching frames sampled from a single video clip. Describe what the frames show, paying particular attention to: %s.

The clip's audio transcript, for context:
%s

Describe only what is visible. Be specific about objects, people, text on screen and actions.`

// AnswerPrompt assembles the final answer request. Expects three fmt
// arguments: query-focused descriptions block, stored caption/transcript
// block, and the query.
const AnswerPrompt = `Answer the user's question using only the video evidence below.

Query-focused clip descriptions:
%s

Original clip captions and transcripts:
%s

Question: %s

Give a direct, complete answer. If the evidence is insufficient, say what is missing. Do not mention clips or frames unless the user asked about them.`

// CaptionPrompt is the indexing-time caption prompt for clip frames.
// Expects one fmt argument: the clip's audio transcript.
const CaptionPrompt = `You are watching frames sampled from a single video clip. Describe the visual content: the setting, the people or objects present, any on-screen text, and what is happening.

The clip's audio transcript, for context:
%s

Describe only what is visible in the frames.`
