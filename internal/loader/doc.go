/*
Package loader parses declarative workflow documents (YAML) into the
domain model.

Keys are matched case-insensitively and durations accept both Go syntax
("1h30m") and the trailing-unit shorthand ("90s", "30m", "2d") plus the
colon form ("01:30:00"). Structural integrity (broken transition targets,
missing terminal states) is internal/validator's concern, not the
loader's: the loader only rejects documents it cannot represent at all.
*/
package loader
