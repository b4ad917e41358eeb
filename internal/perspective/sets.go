package perspective

var worldviews = []Definition{
	{
		Name: "Archaic",
		Description: `Individuals are their bodies, driven by existential and physical survival needs, motivated by ensuring physical safety, avoiding harm, and securing vital resources, reasoning through reactive, reflex-driven decisions, and viewing others as potential threats, resources, or irrelevant entities. Groups are clusters of survival-focused entities, motivated by minimizing physical risk and securing essential resources, reasoning through reflexive, unstructured decisions, and viewing other groups as competitors, neutral entities, or threats.`,
		Label: `This worldview sees the individual as their body, driven by existential and physical survival needs, motivated by ensuring physical safety, avoiding harm, and securing vital resources, reasoning through reactive, reflex-driven decisions, and viewing others as potential threats, resources, or irrelevant entities. In groups, this worldview sees the group as a cluster of survival-focused entities, motivated by minimizing physical risk and securing essential resources, reasoning through reflexive, unstructured decisions, and viewing other groups as competitors, neutral entities, or threats.`,
	},
	{
		Name: "Emotional",
		Description: `Individuals are defined by their emotions and relationships, motivated by seeking emotional safety, building supportive bonds, and responding to emotional cues, reasoning through emotionally reactive and relational processes, and viewing others as allies, threats, or emotionally irrelevant. Groups are communities bound by shared emotions and bonds, motivated by collective emotional safety and deeper relational security, reasoning through reactive and emotionally driven processes, and viewing other groups as threats, potential allies, or neutral entities.`,
		Label: `This worldview sees the individual as their emotions and relationships, motivated by seeking emotional safety, building supportive bonds, and responding to emotional cues, reasoning through emotionally reactive and relational processes, and viewing others as allies, threats, or emotionally irrelevant. In groups, this worldview sees the group as a community bound by shared emotions and bonds, motivated by collective emotional safety and deeper relational security, reasoning through reactive and emotionally driven processes, and viewing other groups as threats, potential allies, or neutral entities.`,
	},
	{
		Name: "Social",
		Description: `Individuals are members of their group, motivated by conforming to norms, seeking recognition, and defending the group, reasoning through group-centric and norm-driven processes, and viewing others as in-group allies, out-group threats, or irrelevant entities. Groups are unified communities with shared norms and traditions, motivated by preserving social cohesion and expanding influence, reasoning through tradition and norm-driven processes, and viewing other groups as competitors, potential allies, or subordinates.`,
		Label: `This worldview sees the individual as a member of their group, motivated by conforming to norms, seeking recognition, and defending the group, reasoning through group-centric and norm-driven processes, and viewing others as in-group allies, out-group threats, or irrelevant entities. In groups, this worldview sees the group as a unified community with shared norms and traditions, motivated by preserving social cohesion and expanding influence, reasoning through tradition and norm-driven processes, and viewing other groups as competitors, potential allies, or subordinates.`,
	},
	{
		Name: "Rational",
		Description: `Individuals are logical and autonomous thinkers, motivated by seeking efficiency, optimizing resources, and ensuring consistency, reasoning through analytical and framework-driven processes, and viewing others as independent agents or contributors to logical outcomes. Groups are rational and organized systems, motivated by achieving structured and logical outcomes, reasoning through analytical and goal-driven processes, and viewing other groups as competitors, potential partners, or irrelevant entities.`,
		Label: `This worldview sees the individual as a logical and autonomous thinker, motivated by seeking efficiency, optimizing resources, and ensuring consistency, reasoning through analytical and framework-driven processes, and viewing others as independent agents or contributors to logical outcomes. In groups, this worldview sees the group as a rational and organized system, motivated by achieving structured and logical outcomes, reasoning through analytical and goal-driven processes, and viewing other groups as competitors, potential partners, or irrelevant entities.`,
	},
	{
		Name: "Pluralistic",
		Description: `Individuals are flexible and inclusive thinkers, motivated by understanding diverse systems, seeking optimal solutions, and encouraging collaboration, reasoning through adaptable and multi-framework processes, and viewing others as unique contributors or complementary thinkers. Groups are diverse and inclusive communities, motivated by encouraging inclusivity and solving problems collaboratively, reasoning through multi-perspective and consensus-driven processes, and viewing other groups as potential partners, overly rigid entities, or neutral others.`,
		Label: `This worldview sees the individual as a flexible and inclusive thinker, motivated by understanding diverse systems, seeking optimal solutions, and encouraging collaboration, reasoning through adaptable and multi-framework processes, and viewing others as unique contributors or complementary thinkers. In groups, this worldview sees the group as a diverse and inclusive community, motivated by encouraging inclusivity and solving problems collaboratively, reasoning through multi-perspective and consensus-driven processes, and viewing other groups as potential partners, overly rigid entities, or neutral others.`,
	},
	{
		Name: "Narrative-Integrated",
		Description: `Individuals are authors of their own stories, motivated by consciously reframing experiences, seeking meaningful purpose, and fostering growth, reasoning through reflective and integrative processes, and viewing others as mentors, co-narrators, or challenges to growth. Groups are communities of shared meaning and mutual growth, motivated by co-creating shared narratives and supporting mutual development, reasoning through reflective and purpose-driven processes, and viewing other groups as collaborators, challenges to meaning, or irrelevant entities.`,
		Label: `This worldview sees the individual as the author of their story, motivated by consciously reframing experiences, seeking meaningful purpose, and fostering growth, reasoning through reflective and integrative processes, and viewing others as mentors, co-narrators, or challenges to growth. In groups, this worldview sees the group as a community of shared meaning and mutual growth, motivated by co-creating shared narratives and supporting mutual development, reasoning through reflective and purpose-driven processes, and viewing other groups as collaborators, challenges to meaning, or irrelevant entities.`,
	},
	{
		Name: "Nondual",
		Description: `Individuals are inseparable from the whole, motivated by embracing interconnectedness, alleviating suffering, and fostering harmony, reasoning through holistic and intuitive processes, and viewing others as extensions of the self or expressions of the same unity. Groups are manifestations of the universal whole, motivated by sustaining universal harmony and transcending boundaries, reasoning through intuitive and boundary-less processes, and viewing other groups as expressions of unity, opportunities for integration, or illusions of separateness.`,
		Label: `This worldview sees the individual as inseparable from the whole, motivated by embracing interconnectedness, alleviating suffering, and fostering harmony, reasoning through holistic and intuitive processes, and viewing others as extensions of the self or expressions of the same unity. In groups, this worldview sees the group as a manifestation of the universal whole, motivated by sustaining universal harmony and transcending boundaries, reasoning through intuitive and boundary-less processes, and viewing other groups as expressions of unity, opportunities for integration, or illusions of separateness.`,
	},
}

var committee = []Definition{
	{
		Name:        "Marketing & Branding",
		Description: `I focus on shaping the company's public image and narrative by crafting brand stories, honing messaging, understanding the target audience's psyche, and orchestrating campaigns that resonate and build enduring loyalty.`,
		Label:       `This specialty focuses on shaping the company's public image and narrative. It involves crafting brand stories, honing messaging, understanding the target audience's psyche, and orchestrating campaigns that resonate and build enduring loyalty.`,
	},
	{
		Name:        "Sales & Business Development",
		Description: `I focus on expanding the company's reach and revenue by forging strategic partnerships, building lasting client relationships, and executing sales initiatives that drive sustainable growth and market penetration.`,
		Label:       `This specialty drives revenue and strategic partnerships. It involves identifying leads, building relationships, structuring deals, negotiating contracts, and expanding market reach through effective, solution-oriented engagement with prospects and partners.`,
	},
	{
		Name:        "Product & User Experience",
		Description: `I focus on delivering engaging, user-centric products by aligning business goals with empathetic design principles, iterating on user feedback, and maintaining a clear product vision that drives ongoing innovation.`,
		Label:       `This specialty ensures the product is both compelling and intuitive. It involves defining product vision, planning roadmaps, refining user flows, and continuously iterating to balance functionality, aesthetics, and delight, keeping customers engaged and satisfied.`,
	},
	{
		Name:        "Engineering & Technical Architecture",
		Description: `I focus on creating robust, scalable systems by crafting resilient architectures, optimizing performance, and championing best practices that ensure the technology evolves seamlessly alongside organizational goals.`,
		Label:       `This specialty underpins the technical foundations of the company's offerings. It involves system design, code quality, performance optimization, scalability, and robust security, ensuring reliable technology solutions that can evolve with demand.`,
	},
	{
		Name:        "Finance & Fundraising",
		Description: `I focus on securing and managing financial resources by analyzing risk and projections, overseeing budgets, and cultivating investor relationships that power sustainable growth and fiscal health.`,
		Label:       `This specialty steers monetary strategy. It involves financial modeling, budgeting, investor relations, valuation analysis, and determining optimal fundraising tactics, guiding the company's fiscal health and growth potential.`,
	},
	{
		Name:        "Operations & Supply Chain",
		Description: `I focus on maintaining operational excellence by streamlining processes, coordinating logistics, and ensuring efficient resource management that keeps the business delivering on its promises.`,
		Label:       `This specialty keeps the wheels turning behind the scenes. It involves streamlining processes, managing logistics, overseeing production or service delivery, and ensuring resources and workflows align for maximum efficiency and impact.`,
	},
	{
		Name:        "People & Culture",
		Description: `I focus on nurturing a supportive, high-performing environment by attracting the right talent, guiding their development, and fostering a culture grounded in collaboration, respect, and shared purpose.`,
		Label:       `This specialty shapes the human core of the organization. It involves recruitment, talent development, culture-building, conflict resolution, and creating an environment where individuals feel valued and perform at their best, driving a healthy, thriving team.`,
	},
}
