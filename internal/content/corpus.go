package content

// The comment and message corpus. Short, varied, and deliberately uneven in
// tone so repeated use doesn't read as templated.

var comments = map[Category][]string{
	CategoryGeneral: {
		"This is great! 👌",
		"Really good content, thanks for sharing ✨",
		"Love this! 😍",
		"Nice work 👏",
		"Your posts are always interesting 👌",
		"Really enjoyed this one ❤️",
		"Great as always",
		"What a cool idea 💡",
		"Wow, this is amazing",
		"Thanks for sharing this 🙏",
		"Definitely deserves a like 👍",
		"So good 👌",
		"Really interesting 👌",
		"Keep it up 👍",
		"Great page, your content is excellent 👏",
	},
	CategoryNature: {
		"What a beautiful view! Where is this? 😍",
		"Nature at its finest ❤️",
		"Your photography is stunning 📸",
		"I love hiking too 🌿",
		"Wish I was there right now 🏞️",
		"These colors are so calming 💚",
		"You captured the moment perfectly 👌",
		"Nature is the best therapy 🍃",
		"Breathtaking scenery 🌄",
		"This photo has such a good vibe 🌿",
	},
	CategoryFood: {
		"This looks so delicious 😋",
		"Amazing cooking! Could you share the recipe? 👨‍🍳",
		"Now I'm hungry 🍽️",
		"Well done, looks perfect 👌",
		"The colors alone are mouthwatering 😍",
		"I have to try this dish 👌",
		"You're a master chef 🧑‍🍳",
		"Everything looks so appetizing 👏",
		"What a presentation! True artistry 🎨",
		"Will you post the recipe? 🙏",
	},
	CategoryPhotography: {
		"Incredible shot! What camera did you use? 📸",
		"The composition is excellent 👌",
		"What an angle! Well done 👏",
		"Your photography is on another level 📷",
		"The lighting in this is so good ✨",
		"This one belongs in a frame 🖼️",
		"I love photography too, what were your settings? 🙏",
		"You have an artist's eye 👁️",
		"Fantastic framing 📷",
		"This photo conveys so much feeling 💯",
	},
	CategoryArt: {
		"What a beautiful piece! You're truly talented 🎨",
		"Your art is incredible 👏",
		"Such delicate work ✨",
		"I love your style 💕",
		"The patience this must have taken 👌",
		"Where did you learn to do this? 😍",
		"Your creativity is admirable 💫",
		"Great color choices 🎭",
		"Do you take commissions? 🙏",
		"You've created something wonderful 🖼️",
	},
	CategoryFashion: {
		"Your style is amazing 👗",
		"This outfit really suits you 👌",
		"Great taste 💯",
		"Where do you usually shop? 🛍️",
		"I need to try a look like this ✨",
		"So chic and modern 👌",
		"The color of that outfit is perfect 🌈",
		"Your style is always inspiring 👑",
		"Very well dressed 👏",
		"You just have great taste 👔",
	},
	CategoryPersonal: {
		"What a lovely photo! 😊",
		"You always radiate positive energy 💫",
		"Glad to see you doing well ❤️",
		"Great smile 😊",
		"You seem really cool 👍",
		"I love your energy 💕",
		"Good for you! Awesome 👌",
		"Stay happy 🙏",
		"This photo is full of good vibes ✨",
		"So positive! 💯",
	},
}

var questions = []string{
	"What do you think about it?",
	"Could you tell us more?",
	"Where can I find it?",
	"How long have you been doing this?",
	"Any tips for beginners?",
	"How would you recommend getting started?",
	"What's the best thing you've learned?",
	"Any brand you'd recommend?",
	"If I wanted to start, where should I begin?",
	"Would you share more of your experience?",
}

var messages = map[Subject][]string{
	SubjectIntroduction: {
		"Hi {username}! I really enjoyed your page. You share useful and engaging content — just wanted to say your work is great and thank you for posting it. 😊",
		"Hey {username}, I came across your posts and was genuinely impressed! Wanted to thank you for the quality content. You're very talented. 👏",
		"Hi {username}, I found your page by chance and your content really caught my attention. Thought I'd drop by and say thanks. Hope to see more. ✨",
		"Hi {username}, I just discovered your work and had to say it's excellent! You've got a new fan. Would be glad to stay in touch. 🙂",
		"Hey {username}, found your page through explore and loved the content. Just wanted to let you know I followed and I'm looking forward to your next posts! 💯",
	},
	SubjectCollaboration: {
		"Hi {username}, I work in a similar space and your content is really inspiring. Would be happy to exchange ideas and maybe collaborate sometime. What do you think? 🤝",
		"Hey {username}, your work is great! I'm also active in this field and think we could share some good ideas. Would you like to chat about {subject} sometime? 💡",
		"Hi {username}, I found your page really interesting and educational. I work in the same area and would love to connect. Maybe we can learn from each other's experience? 📚",
		"Hello {username}! I really enjoyed your creative work. I'm also working on {subject} and I think like-minded people collaborating can lead to great results. Interested? 🌟",
		"Hi {username}, I've been following your page for a while and you create really valuable content. Are you open to working on something together? I think we could do interesting things. 🤔",
	},
	SubjectQuestion: {
		"Hi {username}, I really like your work and you clearly know this field well. If possible, I'd love your opinion on {subject}. Any guidance would be appreciated. 🙏",
		"Hey {username}, I'm new to {subject} and learn a lot from your posts. Quick question — where would you recommend starting? Any small tip helps. ❓",
		"Hello {username}! I've been following for a while and learned a lot. I'd love your expert take on {subject}. What's been your experience? 🤔",
		"Hi {username}, I recently found your work and I'm impressed by your expertise. A question came up — could you help me out? I'd like to know more about {subject}. 📝",
		"Hey {username}, I've been following your page and find it really useful. I've got a problem you might be able to help with — could you give me some advice about {subject}? Thanks a lot. 💬",
	},
	SubjectCompliment: {
		"Hi {username}! Just wanted to say your content is outstanding. Every post gives me energy and inspiration. Keep it up! ✨👏",
		"Hey {username}, I don't know how to put it, but your page is one of the best I've seen! Creative and useful at the same time. Just wanted you to know you have a fan. 💯❤️",
		"Hello {username}! I have to admit I love your style and content. Always looking forward to your next post. Just wanted to send some encouragement. 🙌",
		"Hi {username}, I went through your whole page today and it's genuinely impressive. You clearly put a lot of love into your work, and it shows. 👏🔥",
		"Hey {username}, I've followed your page for a while and every post amazes me. You have remarkable talent and creativity. Thanks for all the quality content. 🌟💕",
	},
	SubjectSuggestion: {
		"Hi {username}! I love your content and had a suggestion — have you considered making something about {subject}? I think it would be really interesting and a lot of people would want your take. 💡",
		"Hey {username}, I always enjoy your posts and an idea came to mind. How about a post on {subject}? With your expertise it would turn out great. What do you think? 🤔✨",
		"Hello {username}! I'm a fan of your page and have a suggestion for you. I'd love to learn more about {subject} and thought you might enjoy covering it. Thoughts? 📚",
		"Hi {username}, I follow your content closely and get a lot out of it. A topic came to mind that fits your style: {subject}. Would you consider it? 💭",
		"Hey {username}! I love your perspective and think a piece on {subject} would be fantastic. The topic has been getting a lot of attention lately and your take would be valuable. How about it? 🌟👀",
	},
}

var defaultTopics = []string{
	"digital content",
	"lifestyle",
	"creativity",
	"art",
	"design",
	"photography",
}
