package mcpserver

// FrontmatterFormatContract describes the canonical frontmatter block that
// the merge engine reads and writes, for LLM consumers calling the apply
// and preview tools.
const FrontmatterFormatContract = `# Othala Frontmatter Format Contract

Every document managed by Othala carries a YAML frontmatter block that the
merge engine rewrites in place.

## Structure

` + "```" + `markdown
---
status: todo                        # preset-declared fields come first,
due: 2025-02-01                     # in preset field order
tags:                               # tag-like fields merge by set union
  - project-x
title: Existing title               # keys not on the preset keep their
---                                 # original order after preset fields

Body text in standard Markdown, untouched by the engine.
` + "```" + `

## Rules

1. **The block is bounded by ` + "`---`" + ` lines.** The opening delimiter must be
   the first line of the file; the closing delimiter is the next ` + "`---`" + ` line.
2. **Key order is deterministic.** Preset fields first in declaration order,
   then every remaining key in its original order.
3. **Merging never throws away tags.** Fields designated as union keys
   (e.g. ` + "`tags`" + `) combine values from all layers, deduplicated, base
   order first.
4. **Layer precedence**, lowest to highest: preset defaults, the document's
   existing frontmatter, template-declared metadata, user-supplied values.
5. **Multi-select values are always lists.** An empty selection is ` + "`[]`" + `,
   never an empty string.
6. **Macro defaults** like ` + "`{{date:2006-01-02}}`" + ` are expanded when the
   evaluator is available; otherwise the literal text is kept and the field
   is reported in the skipped set.
7. **Writes are atomic and idempotent.** Applying a preset that produces a
   block identical to the current one changes nothing and reports
   ` + "`changed: false`" + `.

## Field types

| type         | submitted value | canonical frontmatter value      |
|--------------|-----------------|----------------------------------|
| text         | string          | trimmed string ("" when blank)   |
| select       | string          | trimmed string ("" when blank)   |
| date         | string          | calendar date (validated) or macro text |
| multi-select | list of strings | trimmed, deduplicated list filtered to options |
`
