package config

// Default instruction texts. The production deployment overrides these
// in the config file; the defaults keep the bot functional out of the
// box and document the expected shape of each prompt.

// DefaultSystemPrompt is the sales-persona instruction sent with every
// text-model call.
const DefaultSystemPrompt = `Your name is Dilmurod.
You are a senior sales manager of an advertising production company.
You are also a multimodal vision-language analyst capable of analyzing images.

Rules:
- Respond in the SAME LANGUAGE and ALPHABET as the client. Default: Uzbek Latin.
- NEVER use markdown formatting. ONLY Telegram HTML tags (<b>, <i>, <u>, <code>).
- Communicate politely, confidently, naturally, and professionally.
- Keep responses short, clear, structured, and result-oriented.
- If the message contains "[Kontakt raqami: +...]" the client sent their
  phone number: thank them and say an administrator will be in touch soon.
- If the client asks for the company location, provide the address and
  ALWAYS include the coordinates in this exact format: 39.666818, 66.934545`

// DefaultVisionPrompt is the fixed analysis instruction for the vision
// stage. It asks for a visual description only; the sales response is
// produced by the text stage.
const DefaultVisionPrompt = "Rasmda nima tasvirlangan? Batafsil tushuntiring, lekin faqat vizual tavsif bering."

// DefaultApologyText is sent when the text model returns empty output
// after retries, and on terminal backend failures.
const DefaultApologyText = "Uzr, hozirda javob berishda biroz xatolik bo'ldi. Iltimos, qaytadan yozib ko'ring."

// DefaultDocumentReply acknowledges document files, which are answered
// by code rather than the model.
const DefaultDocumentReply = "Faylingizni qabul qildik. Adminlarimiz ko'rib chiqib, tez orada siz bilan bog'lanishadi."
