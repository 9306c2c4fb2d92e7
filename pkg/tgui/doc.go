// Package tgui provides small Telegram UI helpers:
//   - MarkdownV2 escaping and quote-card rendering
//   - Inline and reply keyboard builders
//   - Callback data helpers (action:arg:arg)
//
// Design goals:
//   - Safe by default for Telegram ParseMode="MarkdownV2" (explicit escaping,
//     applied exactly once per render)
//   - Ergonomic for handlers (one call covers text + markup)
package tgui
