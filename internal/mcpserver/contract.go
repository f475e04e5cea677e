package mcpserver

// LinkGrammar describes the link syntax relink reads and the form it writes,
// so that LLM consumers can author documents that resolve cleanly.
const LinkGrammar = `# relink Link Grammar

## Input

` + "```" + `
[[target]]
[[target|label]]
` + "```" + `

- ` + "`target`" + ` is any run of characters except ` + "`|`" + ` and ` + "`]`" + `.
- ` + "`label`" + ` is any run of characters except ` + "`]`" + `.
- The first ` + "`]]`" + ` closes the link. Nesting is not supported.

## Output

` + "```" + `
[label](destination)
` + "```" + `

## Resolution

1. The lookup key is the target lowercased with spaces replaced by
   underscores. Nothing else is changed, so punctuation stays.
2. Documents are indexed under their path relative to the corpus root,
   without extension, with ` + "`/`" + ` replaced by ` + "`_`" + `.
   File names are normalized first: lowercase, spaces to underscores,
   every other character that is not a letter, digit or underscore removed.
3. When the key is indexed the destination is the document path,
   otherwise the key itself.
4. The label is the explicit label when present, otherwise the key.

## Examples

| Input | Output (with ` + "`file2.md`" + ` indexed) |
|---|---|
| ` + "`[[File2]]`" + ` | ` + "`[file2](file2.md)`" + ` |
| ` + "`[[File2|custom text]]`" + ` | ` + "`[custom text](file2.md)`" + ` |
| ` + "`[[Missing Note]]`" + ` | ` + "`[missing_note](missing_note)`" + ` |
`
